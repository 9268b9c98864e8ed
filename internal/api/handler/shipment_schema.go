package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Request types ---

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type addressRequest struct {
	Street      string              `json:"street"      validate:"required"`
	City        string              `json:"city"        validate:"required"`
	State       string              `json:"state"`
	Country     string              `json:"country"     validate:"required"`
	PostalCode  string              `json:"postalCode"`
	Coordinates *coordinatesRequest `json:"coordinates" validate:"omitempty"`
}

type dimensionsRequest struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width"  validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

type createShipmentRequest struct {
	PickupAddress       addressRequest     `json:"pickupAddress"       validate:"required"`
	DeliveryAddress     addressRequest     `json:"deliveryAddress"     validate:"required"`
	ReceiverName        string             `json:"receiverName"        validate:"required"`
	ReceiverPhoneNumber string             `json:"receiverPhoneNumber" validate:"required"`
	ReceiverEmail       string             `json:"receiverEmail"       validate:"omitempty,email"`
	PackageType         string             `json:"packageType"         validate:"required"`
	PackageDescription  string             `json:"packageDescription"`
	ServiceType         string             `json:"serviceType"`
	Weight              float64            `json:"weight"              validate:"omitempty,gt=0"`
	Dimensions          *dimensionsRequest `json:"dimensions"          validate:"omitempty"`
	Fragile             bool               `json:"fragile"`
	Notes               string             `json:"notes"`
	ScheduledPickupTime *time.Time         `json:"scheduledPickupTime"`
	DeliveryType        string             `json:"deliveryType"        validate:"omitempty,oneof=park home"`
	PaymentMethod       string             `json:"paymentMethod"       validate:"omitempty,oneof=paypal bank_transfer cash part_payment"`
}

// adminCreateShipmentRequest books on behalf of the customer in UserID.
type adminCreateShipmentRequest struct {
	UserID string `json:"userId"`
	createShipmentRequest
}

type updateStatusRequest struct {
	Status          string              `json:"status"          validate:"required,oneof=pending booked picked_up in_transit delivered cancelled"`
	CurrentLocation *coordinatesRequest `json:"currentLocation" validate:"omitempty"`
}

type updatePaymentRequest struct {
	PaymentStatus string          `json:"paymentStatus" validate:"required,oneof=unpaid pending paid failed"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"        validate:"required,oneof=paypal bank_transfer cash part_payment"`
}

// updateDimensionsRequest carries either measurements or a price guide id.
type updateDimensionsRequest struct {
	Dimensions  *dimensionsRequest `json:"dimensions"  validate:"omitempty"`
	Weight      *float64           `json:"weight"      validate:"omitempty,gt=0"`
	PriceGuides string             `json:"priceGuides"`
}

// updateAddressRequest is a partial update; null clears a field.
type updateAddressRequest struct {
	PickupAddress       nullable[addressRequest] `json:"pickupAddress"       validate:"-"`
	DeliveryAddress     nullable[addressRequest] `json:"deliveryAddress"     validate:"-"`
	ReceiverName        nullable[string]         `json:"receiverName"        validate:"-"`
	ReceiverPhoneNumber nullable[string]         `json:"receiverPhoneNumber" validate:"-"`
	ReceiverEmail       nullable[string]         `json:"receiverEmail"       validate:"-"`
	DeliveryType        nullable[string]         `json:"deliveryType"        validate:"-"`
}

type schedulePickupRequest struct {
	ScheduledPickupTime *time.Time `json:"scheduledPickupTime" validate:"required"`
}

type assignDriverRequest struct {
	ShipmentID string `json:"shipmentId" validate:"required"`
	DriverID   string `json:"driverId"   validate:"required"`
}

type assignContainerRequest struct {
	ShipmentID  string `json:"shipmentId"  validate:"required"`
	ContainerID string `json:"containerId" validate:"required"`
}

type listShipmentsQuery struct {
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

// --- Response types ---

type coordinatesResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type addressResponse struct {
	Street      string               `json:"street"`
	City        string               `json:"city"`
	State       string               `json:"state,omitempty"`
	Country     string               `json:"country"`
	PostalCode  string               `json:"postalCode,omitempty"`
	Coordinates *coordinatesResponse `json:"coordinates,omitempty"`
}

type dimensionsResponse struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type priceGuideRefResponse struct {
	ID          string `json:"id"`
	GuideNumber string `json:"guideNumber"`
	GuideName   string `json:"guideName"`
	Price       string `json:"price"`
}

type shipmentResponse struct {
	ID                    string                 `json:"id"`
	TrackingNumber        string                 `json:"trackingNumber"`
	UserID                string                 `json:"userId"`
	BookedBy              string                 `json:"bookedBy,omitempty"`
	DriverID              string                 `json:"driverId,omitempty"`
	ContainerID           string                 `json:"containerId,omitempty"`
	Status                string                 `json:"status"`
	PaymentStatus         string                 `json:"paymentStatus"`
	PaymentMethod         string                 `json:"paymentMethod"`
	Price                 string                 `json:"price"`
	PickupAddress         addressResponse        `json:"pickupAddress"`
	DeliveryAddress       addressResponse        `json:"deliveryAddress"`
	ReceiverName          string                 `json:"receiverName"`
	ReceiverPhoneNumber   string                 `json:"receiverPhoneNumber"`
	ReceiverEmail         string                 `json:"receiverEmail,omitempty"`
	DeliveryType          string                 `json:"deliveryType"`
	PackageType           string                 `json:"packageType"`
	PackageDescription    string                 `json:"packageDescription,omitempty"`
	ServiceType           string                 `json:"serviceType,omitempty"`
	Weight                float64                `json:"weight,omitempty"`
	Dimensions            *dimensionsResponse    `json:"dimensions,omitempty"`
	PriceGuide            *priceGuideRefResponse `json:"priceGuides,omitempty"`
	Fragile               bool                   `json:"fragile"`
	Notes                 string                 `json:"notes,omitempty"`
	ScheduledPickupTime   *time.Time             `json:"scheduledPickupTime,omitempty"`
	EstimatedDeliveryTime *time.Time             `json:"estimatedDeliveryTime,omitempty"`
	CurrentLocation       *coordinatesResponse   `json:"currentLocation,omitempty"`
	Images                []string               `json:"images"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type listShipmentsResponse struct {
	Shipments  []shipmentResponse `json:"shipments"`
	Pagination paginationResponse `json:"pagination"`
}

type trackingResponse struct {
	TrackingNumber        string          `json:"trackingNumber"`
	Status                string          `json:"status"`
	EstimatedDeliveryTime *time.Time      `json:"estimatedDeliveryTime,omitempty"`
	PickupAddress         addressResponse `json:"pickupAddress"`
	DeliveryAddress       addressResponse `json:"deliveryAddress"`
}

type dashboardStatsResponse struct {
	TotalShipments     int64  `json:"totalShipments"`
	PendingShipments   int64  `json:"pendingShipments"`
	DeliveredShipments int64  `json:"deliveredShipments"`
	CancelledShipments int64  `json:"cancelledShipments"`
	TotalRevenue       string `json:"totalRevenue"`
}
