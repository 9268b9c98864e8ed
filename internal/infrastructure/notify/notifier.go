// Package notify renders transactional e-mails and queues them in the
// notification outbox for asynchronous delivery.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/pkg/metrics"
)

var ErrNoRecipient = errors.New("notification has no recipient address")

// OutboxNotifier implements ports.Notifier and ports.VerificationNotifier by
// writing rendered messages to the outbox. A Send call fails only when the
// message could not be stored.
type OutboxNotifier struct {
	store  ports.OutboxStore
	now    func() time.Time
	logger zerolog.Logger
}

func NewOutboxNotifier(store ports.OutboxStore, logger zerolog.Logger) *OutboxNotifier {
	return &OutboxNotifier{store: store, now: time.Now, logger: logger}
}

var (
	_ ports.Notifier             = (*OutboxNotifier)(nil)
	_ ports.VerificationNotifier = (*OutboxNotifier)(nil)
)

func (n *OutboxNotifier) SendBookingConfirmation(ctx context.Context, account domain.Account, s *domain.Shipment) error {
	return n.enqueue(ctx, domain.NotifyBookingConfirmation, account.Email, "Your Shipment Booking Confirmation",
		view{Title: "Shipment Booking Confirmation", Account: account, Shipment: s})
}

func (n *OutboxNotifier) SendPaymentConfirmation(ctx context.Context, account domain.Account, s *domain.Shipment) error {
	subject, title := "Payment Confirmation for Your Shipment", "Payment Confirmation"
	if account.IsReceiver() {
		subject, title = "Payment Received for Your Shipment", "Payment Received"
	}
	return n.enqueue(ctx, domain.NotifyPaymentConfirmation, account.Email, subject,
		view{Title: title, Account: account, Shipment: s})
}

func (n *OutboxNotifier) SendAdminBookingNotification(ctx context.Context, adminAddress string, account domain.Account, s *domain.Shipment) error {
	return n.enqueue(ctx, domain.NotifyAdminBooking, adminAddress, "New Shipment Booking: "+s.TrackingNumber,
		view{Title: "New Shipment Booking", Account: account, Shipment: s})
}

func (n *OutboxNotifier) SendStatusUpdate(ctx context.Context, account domain.Account, s *domain.Shipment) error {
	return n.enqueue(ctx, domain.NotifyStatusUpdate, account.Email, "Shipment Status Update: "+s.TrackingNumber,
		view{Title: "Shipment Status Update", Account: account, Shipment: s})
}

func (n *OutboxNotifier) SendVerificationCode(ctx context.Context, account domain.Account, code string) error {
	return n.enqueue(ctx, domain.NotifyEmailVerification, account.Email, "Verify Your Email Address",
		view{Title: "Verify Your Email Address", Account: account, Code: code})
}

func (n *OutboxNotifier) enqueue(ctx context.Context, kind domain.NotificationKind, to, subject string, v view) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%s: %w", kind, ErrNoRecipient)
	}

	now := n.now().UTC()
	v.SentAt = now
	body, err := render(kind, v)
	if err != nil {
		return err
	}

	msg := &domain.OutboxMessage{
		ID:            uuid.NewString(),
		Kind:          kind,
		Recipient:     to,
		Subject:       subject,
		HTMLBody:      body,
		State:         domain.OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if v.Shipment != nil {
		msg.ShipmentID = v.Shipment.ID
		msg.TrackingNumber = v.Shipment.TrackingNumber
	}

	if err := n.store.Save(ctx, msg); err != nil {
		return fmt.Errorf("save outbox message: %w", err)
	}
	metrics.NotificationsEnqueuedTotal.WithLabelValues(string(kind)).Inc()

	n.logger.Debug().
		Str("outbox_id", msg.ID).
		Str("kind", string(kind)).
		Str("shipment_id", msg.ShipmentID).
		Msg("notification enqueued")
	return nil
}
