package ports

import (
	"context"
	"io"

	"github.com/jingally/booking-system/internal/core/domain"
)

// Notifier sends the transactional e-mails of the shipment lifecycle.
// Callers treat every error as non-fatal.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, account domain.Account, s *domain.Shipment) error
	SendPaymentConfirmation(ctx context.Context, account domain.Account, s *domain.Shipment) error
	SendAdminBookingNotification(ctx context.Context, adminAddress string, account domain.Account, s *domain.Shipment) error
	SendStatusUpdate(ctx context.Context, account domain.Account, s *domain.Shipment) error
}

// VerificationNotifier sends account verification codes.
type VerificationNotifier interface {
	SendVerificationCode(ctx context.Context, account domain.Account, code string) error
}

// FileUpload is one file of a photo batch.
type FileUpload struct {
	Filename string
	Data     []byte
}

// ObjectStorage stores binary objects and returns a durable URL for each.
type ObjectStorage interface {
	Upload(ctx context.Context, file FileUpload, folder string) (string, error)
	// Delete removes the object behind a URL returned by Upload. Deleting a
	// missing object is not an error.
	Delete(ctx context.Context, url string) error
}

// MediaObject is a stored object opened for reading. Callers must Close it.
type MediaObject struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// MediaReader streams objects previously stored through ObjectStorage.
type MediaReader interface {
	Open(ctx context.Context, id string) (*MediaObject, error)
}
