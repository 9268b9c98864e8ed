package ports

import (
	"context"
	"time"

	"github.com/jingally/booking-system/internal/core/domain"
)

// UserRepository defines persistence for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string) error
}

// PriceGuideRepository defines persistence for price guides.
type PriceGuideRepository interface {
	// Create yields domain.ErrDuplicateGuideNumber when the guide number is taken.
	Create(ctx context.Context, g *domain.PriceGuide) error
	FindByID(ctx context.Context, id string) (*domain.PriceGuide, error)
	List(ctx context.Context) ([]*domain.PriceGuide, error)
}

// OutboxStore persists rendered notifications until they are delivered.
type OutboxStore interface {
	Save(ctx context.Context, msg *domain.OutboxMessage) error
	// Claim leases up to limit due messages to the caller until now+lease.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id string) error
	// MarkFailed records a failed attempt. When dead is true the message is
	// never claimed again.
	MarkFailed(ctx context.Context, id string, reason string, nextAttemptAt time.Time, dead bool) error
}

// IdempotencyStore remembers which shipment a client-supplied key produced.
// A key is reserved before the shipment is created so concurrent requests
// carrying the same key cannot both create one.
type IdempotencyStore interface {
	// Reserve claims the key. When it is already claimed, reserved is false and
	// shipmentID is the stored result, or empty while the first request runs.
	Reserve(ctx context.Context, ownerID, key string) (shipmentID string, reserved bool, err error)
	// Complete records the shipment created under a reserved key.
	Complete(ctx context.Context, ownerID, key, shipmentID string) error
	// Release drops a reservation whose request failed.
	Release(ctx context.Context, ownerID, key string) error
}

// VerificationCodeStore keeps e-mail verification codes with expiry.
type VerificationCodeStore interface {
	Save(ctx context.Context, userID, code string, ttl time.Duration) error
	// Get returns domain.ErrInvalidVerificationCode when no live code exists.
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}
