package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
)

// Scope restricts repository lookups to the shipments a caller may see.
// The zero value is unscoped (admin). When both fields are set a shipment
// matches if either its owner or its assigned driver matches.
type Scope struct {
	OwnerID  string
	DriverID string
}

// Unscoped reports whether the scope places no restriction.
func (s Scope) Unscoped() bool { return s.OwnerID == "" && s.DriverID == "" }

// Allows reports whether sh falls inside the scope. Repositories translate the
// same rule into their query filters.
func (s Scope) Allows(sh *domain.Shipment) bool {
	if s.Unscoped() {
		return true
	}
	if s.OwnerID != "" && sh.OwnerID == s.OwnerID {
		return true
	}
	return s.DriverID != "" && sh.DriverID == s.DriverID
}

// ListShipmentsFilter carries the query parameters for listing shipments.
type ListShipmentsFilter struct {
	Scope  Scope
	Status string // optional
	Page   int    // 1-based
	Limit  int
}

// ContactFields is the address and receiver field group written as a whole.
type ContactFields struct {
	PickupAddress       domain.Address
	DeliveryAddress     domain.Address
	ReceiverName        string
	ReceiverPhoneNumber string
	ReceiverEmail       string
	DeliveryType        domain.DeliveryType
}

// ShipmentPatch lists the fields one Update call writes. Nil fields are left
// untouched; all non-nil fields are written in a single atomic operation.
type ShipmentPatch struct {
	Status          *domain.ShipmentStatus
	CurrentLocation *domain.Coordinates

	PaymentStatus *domain.PaymentStatus
	PaymentMethod *domain.PaymentMethod
	Price         *decimal.Decimal

	Dimensions *domain.Dimensions
	Weight     *float64
	PriceGuide *domain.PriceGuideRef

	Contact *ContactFields

	ScheduledPickupTime   *time.Time
	EstimatedDeliveryTime *time.Time

	DriverID    *string
	ContainerID *string
}

// ShipmentStats aggregates the admin dashboard counters.
type ShipmentStats struct {
	Total     int64
	Pending   int64
	Delivered int64
	Cancelled int64
	Revenue   decimal.Decimal
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	// Create inserts s. A tracking number already in use yields domain.ErrTrackingConflict.
	Create(ctx context.Context, s *domain.Shipment) error
	// FindByID returns domain.ErrShipmentNotFound when the shipment is missing or outside scope.
	FindByID(ctx context.Context, id string, scope Scope) (*domain.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	// List returns a page of shipments, newest first, and the total match count.
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
	// Update applies patch and returns the shipment as stored afterwards.
	Update(ctx context.Context, id string, scope Scope, patch ShipmentPatch) (*domain.Shipment, error)
	// AppendImages adds urls to the end of the images list, preserving order.
	AppendImages(ctx context.Context, id string, scope Scope, urls []string) (*domain.Shipment, error)
	Stats(ctx context.Context) (*ShipmentStats, error)
}

// ApplyTo writes the non-nil fields of p into s.
func (p ShipmentPatch) ApplyTo(s *domain.Shipment) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.CurrentLocation != nil {
		loc := *p.CurrentLocation
		s.CurrentLocation = &loc
	}
	if p.PaymentStatus != nil {
		s.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		s.PaymentMethod = *p.PaymentMethod
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Dimensions != nil {
		dims := *p.Dimensions
		s.Dimensions = &dims
	}
	if p.Weight != nil {
		s.Weight = *p.Weight
	}
	if p.PriceGuide != nil {
		ref := *p.PriceGuide
		s.PriceGuide = &ref
	}
	if c := p.Contact; c != nil {
		s.PickupAddress = c.PickupAddress
		s.DeliveryAddress = c.DeliveryAddress
		s.ReceiverName = c.ReceiverName
		s.ReceiverPhoneNumber = c.ReceiverPhoneNumber
		s.ReceiverEmail = c.ReceiverEmail
		s.DeliveryType = c.DeliveryType
	}
	if p.ScheduledPickupTime != nil {
		at := *p.ScheduledPickupTime
		s.ScheduledPickupTime = &at
	}
	if p.EstimatedDeliveryTime != nil {
		at := *p.EstimatedDeliveryTime
		s.EstimatedDeliveryTime = &at
	}
	if p.DriverID != nil {
		s.DriverID = *p.DriverID
	}
	if p.ContainerID != nil {
		s.ContainerID = *p.ContainerID
	}
}
