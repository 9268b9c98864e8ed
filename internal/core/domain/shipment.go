package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusBooked    ShipmentStatus = "booked"
	StatusPickedUp  ShipmentStatus = "picked_up"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelivered ShipmentStatus = "delivered"
	StatusCancelled ShipmentStatus = "cancelled"
)

// Valid reports whether s is a known status value.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusBooked, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further movement is expected from s.
func (s ShipmentStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanCancel reports whether a shipment in status s may still be cancelled.
func (s ShipmentStatus) CanCancel() bool {
	return !s.IsTerminal()
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodPartPayment  PaymentMethod = "part_payment"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPayPal, MethodBankTransfer, MethodCash, MethodPartPayment:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryPark DeliveryType = "park"
	DeliveryHome DeliveryType = "home"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryPark || d == DeliveryHome
}

// deliveryLeadTime is the fixed gap between scheduled pickup and estimated delivery.
const deliveryLeadTime = 3

// EstimateDelivery returns the estimated delivery time for a scheduled pickup.
// AddDate keeps the wall clock and location of the input.
func EstimateDelivery(scheduledPickup time.Time) time.Time {
	return scheduledPickup.AddDate(0, 0, deliveryLeadTime)
}

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address represents a physical location.
type Address struct {
	Street      string       `json:"street"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country"`
	PostalCode  string       `json:"postalCode"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Dimensions represents the physical size of a package in centimetres.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PriceGuideRef is the snapshot of a price guide attached to a shipment.
type PriceGuideRef struct {
	ID          string          `json:"id"`
	GuideNumber string          `json:"guideNumber"`
	GuideName   string          `json:"guideName"`
	Price       decimal.Decimal `json:"price"`
}

// Shipment is the core aggregate root.
type Shipment struct {
	ID             string         `json:"id"`
	TrackingNumber string         `json:"trackingNumber"`
	OwnerID        string         `json:"ownerId"`
	BookedBy       string         `json:"bookedBy,omitempty"`
	DriverID       string         `json:"driverId,omitempty"`
	ContainerID    string         `json:"containerId,omitempty"`
	Status         ShipmentStatus `json:"status"`

	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Price         decimal.Decimal `json:"price"`

	PickupAddress       Address      `json:"pickupAddress"`
	DeliveryAddress     Address      `json:"deliveryAddress"`
	ReceiverName        string       `json:"receiverName"`
	ReceiverPhoneNumber string       `json:"receiverPhoneNumber"`
	ReceiverEmail       string       `json:"receiverEmail,omitempty"`
	DeliveryType        DeliveryType `json:"deliveryType"`

	PackageType        string         `json:"packageType"`
	PackageDescription string         `json:"packageDescription,omitempty"`
	ServiceType        string         `json:"serviceType,omitempty"`
	Weight             float64        `json:"weight"`
	Dimensions         *Dimensions    `json:"dimensions,omitempty"`
	PriceGuide         *PriceGuideRef `json:"priceGuide,omitempty"`
	Fragile            bool           `json:"fragile"`
	Notes              string         `json:"notes,omitempty"`

	ScheduledPickupTime   *time.Time   `json:"scheduledPickupTime,omitempty"`
	EstimatedDeliveryTime *time.Time   `json:"estimatedDeliveryTime,omitempty"`
	CurrentLocation       *Coordinates `json:"currentLocation,omitempty"`

	Images []string `json:"images"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SchedulePickup sets the pickup time and the derived estimated delivery time together.
func (s *Shipment) SchedulePickup(at time.Time) {
	estimated := EstimateDelivery(at)
	s.ScheduledPickupTime = &at
	s.EstimatedDeliveryTime = &estimated
}

// ApplyAddressUpdate merges u into s. Omitted fields are left untouched and
// explicitly null fields are cleared.
func (s *Shipment) ApplyAddressUpdate(u AddressUpdate) {
	u.PickupAddress.ApplyTo(&s.PickupAddress)
	u.DeliveryAddress.ApplyTo(&s.DeliveryAddress)
	u.ReceiverName.ApplyTo(&s.ReceiverName)
	u.ReceiverPhoneNumber.ApplyTo(&s.ReceiverPhoneNumber)
	u.ReceiverEmail.ApplyTo(&s.ReceiverEmail)
	u.DeliveryType.ApplyTo(&s.DeliveryType)
	if s.DeliveryType == "" {
		s.DeliveryType = DeliveryHome
	}
}

// AddressUpdate is a partial update of the address and receiver field group.
type AddressUpdate struct {
	PickupAddress       Optional[Address]
	DeliveryAddress     Optional[Address]
	ReceiverName        Optional[string]
	ReceiverPhoneNumber Optional[string]
	ReceiverEmail       Optional[string]
	DeliveryType        Optional[DeliveryType]
}

// Empty reports whether the update carries no field at all.
func (u AddressUpdate) Empty() bool {
	return !u.PickupAddress.Set && !u.DeliveryAddress.Set && !u.ReceiverName.Set &&
		!u.ReceiverPhoneNumber.Set && !u.ReceiverEmail.Set && !u.DeliveryType.Set
}

// DimensionUpdate is either PackageMeasurements or PriceGuideSelection.
type DimensionUpdate interface {
	isDimensionUpdate()
}

// PackageMeasurements replaces dimensions and/or weight.
type PackageMeasurements struct {
	Dimensions *Dimensions
	Weight     *float64
}

// PriceGuideSelection attaches a price guide in place of measurements.
type PriceGuideSelection struct {
	GuideID string
}

func (PackageMeasurements) isDimensionUpdate() {}
func (PriceGuideSelection) isDimensionUpdate() {}

// TrackingView is the public subset of a shipment returned by the track lookup.
type TrackingView struct {
	TrackingNumber        string
	Status                ShipmentStatus
	EstimatedDeliveryTime *time.Time
	PickupAddress         Address
	DeliveryAddress       Address
}

// Track returns the public tracking view of s.
func (s *Shipment) Track() TrackingView {
	return TrackingView{
		TrackingNumber:        s.TrackingNumber,
		Status:                s.Status,
		EstimatedDeliveryTime: s.EstimatedDeliveryTime,
		PickupAddress:         s.PickupAddress,
		DeliveryAddress:       s.DeliveryAddress,
	}
}
