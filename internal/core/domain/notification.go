package domain

import "time"

// NotificationKind identifies which e-mail an outbox message carries.
type NotificationKind string

const (
	NotifyBookingConfirmation NotificationKind = "booking_confirmation"
	NotifyPaymentConfirmation NotificationKind = "payment_confirmation"
	NotifyAdminBooking        NotificationKind = "admin_booking"
	NotifyStatusUpdate        NotificationKind = "status_update"
	NotifyEmailVerification   NotificationKind = "email_verification"
)

// OutboxState is the delivery state of an outbox message.
type OutboxState string

const (
	OutboxPending    OutboxState = "pending"
	OutboxProcessing OutboxState = "processing"
	OutboxSent       OutboxState = "sent"
	OutboxDead       OutboxState = "dead"
)

// OutboxMessage is a rendered notification waiting for delivery.
type OutboxMessage struct {
	ID             string
	Kind           NotificationKind
	ShipmentID     string
	TrackingNumber string
	Recipient      string
	Subject        string
	HTMLBody       string
	State          OutboxState
	Attempts       int
	LastError      string
	NextAttemptAt  time.Time
	LockedUntil    time.Time
	CreatedAt      time.Time
	SentAt         *time.Time
}

// ShardKey groups messages that must be delivered in order.
func (m *OutboxMessage) ShardKey() string {
	if m.ShipmentID != "" {
		return m.ShipmentID
	}
	return m.Recipient
}
