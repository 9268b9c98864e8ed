// Package retry runs an operation until it succeeds, fails with a
// non-retryable error or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Func is an operation that can be retried.
type Func func() error

// Config controls a Retry call.
type Config struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	Logger      zerolog.Logger
	// RetryableErrors limits retries to errors matching one of these under
	// errors.Is. Empty means every error is retryable.
	RetryableErrors []error
}

// Retry calls fn until it returns nil or the configuration gives up. The last
// error is returned wrapped, so errors.Is still sees the original cause.
func Retry(ctx context.Context, fn Func, cfg Config) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if !isRetryable(err, cfg.RetryableErrors) {
			return err
		}

		wait := time.Duration(0)
		if cfg.Backoff != nil {
			wait = cfg.Backoff.NextBackoff(attempt)
		}
		cfg.Logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Msg("retrying after error")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

func isRetryable(err error, retryable []error) bool {
	if len(retryable) == 0 {
		return true
	}
	for _, target := range retryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
