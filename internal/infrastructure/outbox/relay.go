// Package outbox relays stored notifications to their delivery workers.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 50
	defaultLease        = 5 * time.Minute
)

// Sink receives claimed messages, typically a queue.Dispatcher.
type Sink interface {
	EnqueueBatch(msgs []*domain.OutboxMessage)
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// Lease bounds how long a claimed message stays invisible to other
	// relays before it is claimed again.
	Lease time.Duration
}

// Relay polls the outbox store and hands due messages to a Sink.
type Relay struct {
	store  ports.OutboxStore
	sink   Sink
	cfg    RelayConfig
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewRelay(store ports.OutboxStore, sink Sink, cfg RelayConfig, logger zerolog.Logger) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Lease <= 0 {
		cfg.Lease = defaultLease
	}
	return &Relay{store: store, sink: sink, cfg: cfg, logger: logger}
}

// Start launches the poll loop. Calling Start twice is a no-op.
func (r *Relay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()

	r.logger.Info().
		Dur("poll_interval", r.cfg.PollInterval).
		Int("batch_size", r.cfg.BatchSize).
		Msg("outbox relay started")
}

// Stop ends the poll loop and waits for the current poll to return.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.running = false
	r.logger.Info().Msg("outbox relay stopped")
}

func (r *Relay) loop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Poll(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("outbox poll failed")
			}
		}
	}
}

// Poll claims one batch and forwards it. It returns the number of messages
// forwarded.
func (r *Relay) Poll(ctx context.Context) (int, error) {
	msgs, err := r.store.Claim(ctx, r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	r.logger.Debug().Int("count", len(msgs)).Msg("outbox batch claimed")
	r.sink.EnqueueBatch(msgs)
	return len(msgs), nil
}
