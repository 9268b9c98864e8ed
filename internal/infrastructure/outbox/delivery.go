package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/infrastructure/mail"
	"github.com/jingally/booking-system/internal/pkg/metrics"
	"github.com/jingally/booking-system/pkg/retry"
)

const (
	defaultMaxAttempts = 8
	markAttempts       = 3
)

// Mirror publishes a delivered message to a secondary channel.
type Mirror interface {
	Mirror(ctx context.Context, msg *domain.OutboxMessage, deliveredAt time.Time) error
}

// Delivery sends one outbox message through the mailer and records the
// outcome in the store. It implements queue.Deliverer.
type Delivery struct {
	store       ports.OutboxStore
	mailer      mail.Sender
	mirror      Mirror
	backoff     retry.BackoffStrategy
	markBackoff retry.BackoffStrategy
	maxAttempts int
	now         func() time.Time
	logger      zerolog.Logger
}

type DeliveryConfig struct {
	MaxAttempts int
	Backoff     retry.BackoffStrategy
	// Mirror is optional.
	Mirror Mirror
}

func NewDelivery(store ports.OutboxStore, mailer mail.Sender, cfg DeliveryConfig, logger zerolog.Logger) *Delivery {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff == nil {
		cfg.Backoff = &retry.ExponentialBackoff{
			InitialInterval: 30 * time.Second,
			MaxInterval:     time.Hour,
			Multiplier:      2,
			JitterFactor:    0.2,
		}
	}
	return &Delivery{
		store:       store,
		mailer:      mailer,
		mirror:      cfg.Mirror,
		backoff:     cfg.Backoff,
		markBackoff: &retry.ConstantBackoff{Interval: 200 * time.Millisecond},
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

func (d *Delivery) Deliver(ctx context.Context, msg *domain.OutboxMessage) {
	start := d.now()
	defer func() {
		metrics.OutboxDispatchDuration.WithLabelValues(string(msg.Kind)).Observe(d.now().Sub(start).Seconds())
	}()

	log := d.logger.With().
		Str("outbox_id", msg.ID).
		Str("kind", string(msg.Kind)).
		Str("shipment_id", msg.ShipmentID).
		Int("attempt", msg.Attempts+1).
		Logger()

	err := d.mailer.Send(ctx, mail.Message{To: msg.Recipient, Subject: msg.Subject, HTMLBody: msg.HTMLBody})
	if err != nil {
		d.fail(ctx, msg, err, log)
		return
	}

	deliveredAt := d.now()
	if d.mirror != nil {
		if err := d.mirror.Mirror(ctx, msg, deliveredAt); err != nil {
			log.Warn().Err(err).Msg("notification mirror failed")
		}
	}

	if err := d.mark(ctx, func() error { return d.store.MarkSent(ctx, msg.ID) }); err != nil {
		// The lease will expire and the message is sent again.
		log.Error().Err(err).Msg("mark notification sent failed")
	}
	metrics.NotificationsDeliveredTotal.WithLabelValues(string(msg.Kind), "sent").Inc()
	log.Info().Msg("notification delivered")
}

func (d *Delivery) fail(ctx context.Context, msg *domain.OutboxMessage, cause error, log zerolog.Logger) {
	attempts := msg.Attempts + 1
	dead := attempts >= d.maxAttempts
	next := d.now().Add(d.backoff.NextBackoff(attempts))

	result := "retry"
	if dead {
		result = "dead"
	}
	metrics.NotificationsDeliveredTotal.WithLabelValues(string(msg.Kind), result).Inc()

	ev := log.Warn()
	if dead {
		ev = log.Error()
	}
	ev.Err(cause).Bool("dead", dead).Time("next_attempt_at", next).Msg("notification delivery failed")

	if err := d.mark(ctx, func() error { return d.store.MarkFailed(ctx, msg.ID, cause.Error(), next, dead) }); err != nil {
		log.Error().Err(err).Msg("mark notification failed failed")
	}
}

func (d *Delivery) mark(ctx context.Context, fn retry.Func) error {
	return retry.Retry(ctx, fn, retry.Config{
		MaxAttempts: markAttempts,
		Backoff:     d.markBackoff,
		Logger:      d.logger,
	})
}
