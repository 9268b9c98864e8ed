package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
)

// Caller identifies who invokes a use case. It is built from the JWT claims.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool { return c.Role == domain.RoleAdmin }

// Scope returns the ownership scope the caller is restricted to when mutating
// a shipment. Every non-admin role, drivers included, is scoped to the
// shipments it owns.
func (c Caller) Scope() Scope {
	if c.IsAdmin() {
		return Scope{}
	}
	return Scope{OwnerID: c.UserID}
}

// ReadScope is Scope widened for drivers to the shipments assigned to them.
// It serves reads and status updates only.
func (c Caller) ReadScope() Scope {
	if c.Role == domain.RoleDriver {
		return Scope{OwnerID: c.UserID, DriverID: c.UserID}
	}
	return c.Scope()
}

// CreateShipmentInput carries all data needed to create a new shipment.
type CreateShipmentInput struct {
	// CustomerID books on behalf of another user. Admin only.
	CustomerID string

	PickupAddress       domain.Address
	DeliveryAddress     domain.Address
	ReceiverName        string
	ReceiverPhoneNumber string
	ReceiverEmail       string
	DeliveryType        string
	PaymentMethod       string

	PackageType        string
	PackageDescription string
	ServiceType        string
	Weight             float64
	Dimensions         *domain.Dimensions
	Fragile            bool
	Notes              string

	ScheduledPickupTime *time.Time
	IdempotencyKey      string
}

// CreateShipmentResult is returned by CreateShipment.
type CreateShipmentResult struct {
	Shipment *domain.Shipment
	// AlreadyExisted is true when the Idempotency-Key matched an earlier request.
	AlreadyExisted bool
}

// ListShipmentsInput carries the list endpoint parameters.
type ListShipmentsInput struct {
	Status string
	Page   int
	Limit  int
}

// ListShipmentsResult is returned by ListShipments.
type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UpdateStatusInput carries a status change.
type UpdateStatusInput struct {
	ShipmentID      string
	Status          string
	CurrentLocation *domain.Coordinates
}

// UpdatePaymentInput records a payment outcome.
type UpdatePaymentInput struct {
	ShipmentID    string
	PaymentStatus string
	Amount        decimal.Decimal
	Method        string
}

// ShipmentService defines the shipment lifecycle use cases.
type ShipmentService interface {
	CreateShipment(ctx context.Context, caller Caller, in CreateShipmentInput) (*CreateShipmentResult, error)
	GetShipment(ctx context.Context, caller Caller, id string) (*domain.Shipment, error)
	ListShipments(ctx context.Context, caller Caller, in ListShipmentsInput) (*ListShipmentsResult, error)
	TrackShipment(ctx context.Context, trackingNumber string) (*domain.TrackingView, error)

	UpdateStatus(ctx context.Context, caller Caller, in UpdateStatusInput) (*domain.Shipment, error)
	UpdatePayment(ctx context.Context, caller Caller, in UpdatePaymentInput) (*domain.Shipment, error)
	UpdateDimensions(ctx context.Context, caller Caller, id string, update domain.DimensionUpdate) (*domain.Shipment, error)
	UpdateAddress(ctx context.Context, caller Caller, id string, update domain.AddressUpdate) (*domain.Shipment, error)
	SchedulePickup(ctx context.Context, caller Caller, id string, at time.Time) (*domain.Shipment, error)
	AddPhotos(ctx context.Context, caller Caller, id string, files []FileUpload) (*domain.Shipment, error)
	Cancel(ctx context.Context, caller Caller, id string) (*domain.Shipment, error)

	AssignDriver(ctx context.Context, caller Caller, shipmentID, driverID string) (*domain.Shipment, error)
	AssignContainer(ctx context.Context, caller Caller, shipmentID, containerID string) (*domain.Shipment, error)
	DashboardStats(ctx context.Context, caller Caller) (*ShipmentStats, error)
}

// PriceGuideService manages the price guide catalogue.
type PriceGuideService interface {
	Create(ctx context.Context, caller Caller, name string, price decimal.Decimal) (*domain.PriceGuide, error)
	List(ctx context.Context) ([]*domain.PriceGuide, error)
}

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// AuthService handles accounts, tokens and e-mail verification.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	VerifyEmail(ctx context.Context, email, code string) (*domain.User, error)
	ResendVerification(ctx context.Context, email string) error
}
