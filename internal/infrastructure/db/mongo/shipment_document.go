package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

type coordinatesDoc struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type addressDoc struct {
	Street      string          `bson:"street"`
	City        string          `bson:"city"`
	State       string          `bson:"state,omitempty"`
	Country     string          `bson:"country"`
	PostalCode  string          `bson:"postal_code,omitempty"`
	Coordinates *coordinatesDoc `bson:"coordinates,omitempty"`
}

type dimensionsDoc struct {
	Length float64 `bson:"length"`
	Width  float64 `bson:"width"`
	Height float64 `bson:"height"`
}

type priceGuideRefDoc struct {
	ID          string               `bson:"id"`
	GuideNumber string               `bson:"guide_number"`
	GuideName   string               `bson:"guide_name"`
	Price       primitive.Decimal128 `bson:"price"`
}

// shipmentDoc is the stored shape of a shipment. The string id is kept as
// _id so lookups by id hit the primary index.
type shipmentDoc struct {
	ID             string `bson:"_id"`
	TrackingNumber string `bson:"tracking_number"`
	OwnerID        string `bson:"owner_id"`
	BookedBy       string `bson:"booked_by,omitempty"`
	DriverID       string `bson:"driver_id,omitempty"`
	ContainerID    string `bson:"container_id,omitempty"`

	Status        string               `bson:"status"`
	PaymentStatus string               `bson:"payment_status"`
	PaymentMethod string               `bson:"payment_method"`
	Price         primitive.Decimal128 `bson:"price"`

	PickupAddress       addressDoc `bson:"pickup_address"`
	DeliveryAddress     addressDoc `bson:"delivery_address"`
	ReceiverName        string     `bson:"receiver_name"`
	ReceiverPhoneNumber string     `bson:"receiver_phone_number"`
	ReceiverEmail       string     `bson:"receiver_email,omitempty"`
	DeliveryType        string     `bson:"delivery_type"`

	PackageType        string            `bson:"package_type"`
	PackageDescription string            `bson:"package_description,omitempty"`
	ServiceType        string            `bson:"service_type,omitempty"`
	Weight             float64           `bson:"weight"`
	Dimensions         *dimensionsDoc    `bson:"dimensions,omitempty"`
	PriceGuide         *priceGuideRefDoc `bson:"price_guide,omitempty"`
	Fragile            bool              `bson:"fragile"`
	Notes              string            `bson:"notes,omitempty"`

	ScheduledPickupTime   *time.Time      `bson:"scheduled_pickup_time,omitempty"`
	EstimatedDeliveryTime *time.Time      `bson:"estimated_delivery_time,omitempty"`
	CurrentLocation       *coordinatesDoc `bson:"current_location,omitempty"`
	Images                []string        `bson:"images"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toCoordinatesDoc(c *domain.Coordinates) *coordinatesDoc {
	if c == nil {
		return nil
	}
	return &coordinatesDoc{Lat: c.Lat, Lng: c.Lng}
}

func fromCoordinatesDoc(c *coordinatesDoc) *domain.Coordinates {
	if c == nil {
		return nil
	}
	return &domain.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

func toAddressDoc(a domain.Address) addressDoc {
	return addressDoc{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: toCoordinatesDoc(a.Coordinates),
	}
}

func fromAddressDoc(a addressDoc) domain.Address {
	return domain.Address{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: fromCoordinatesDoc(a.Coordinates),
	}
}

func toDimensionsDoc(d *domain.Dimensions) *dimensionsDoc {
	if d == nil {
		return nil
	}
	return &dimensionsDoc{Length: d.Length, Width: d.Width, Height: d.Height}
}

func toPriceGuideRefDoc(r *domain.PriceGuideRef) *priceGuideRefDoc {
	if r == nil {
		return nil
	}
	return &priceGuideRefDoc{
		ID:          r.ID,
		GuideNumber: r.GuideNumber,
		GuideName:   r.GuideName,
		Price:       toDecimal128(r.Price),
	}
}

func toShipmentDoc(s *domain.Shipment) shipmentDoc {
	images := s.Images
	if images == nil {
		images = []string{}
	}
	return shipmentDoc{
		ID:                    s.ID,
		TrackingNumber:        s.TrackingNumber,
		OwnerID:               s.OwnerID,
		BookedBy:              s.BookedBy,
		DriverID:              s.DriverID,
		ContainerID:           s.ContainerID,
		Status:                string(s.Status),
		PaymentStatus:         string(s.PaymentStatus),
		PaymentMethod:         string(s.PaymentMethod),
		Price:                 toDecimal128(s.Price),
		PickupAddress:         toAddressDoc(s.PickupAddress),
		DeliveryAddress:       toAddressDoc(s.DeliveryAddress),
		ReceiverName:          s.ReceiverName,
		ReceiverPhoneNumber:   s.ReceiverPhoneNumber,
		ReceiverEmail:         s.ReceiverEmail,
		DeliveryType:          string(s.DeliveryType),
		PackageType:           s.PackageType,
		PackageDescription:    s.PackageDescription,
		ServiceType:           s.ServiceType,
		Weight:                s.Weight,
		Dimensions:            toDimensionsDoc(s.Dimensions),
		PriceGuide:            toPriceGuideRefDoc(s.PriceGuide),
		Fragile:               s.Fragile,
		Notes:                 s.Notes,
		ScheduledPickupTime:   s.ScheduledPickupTime,
		EstimatedDeliveryTime: s.EstimatedDeliveryTime,
		CurrentLocation:       toCoordinatesDoc(s.CurrentLocation),
		Images:                images,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (d shipmentDoc) toDomain() *domain.Shipment {
	s := &domain.Shipment{
		ID:                    d.ID,
		TrackingNumber:        d.TrackingNumber,
		OwnerID:               d.OwnerID,
		BookedBy:              d.BookedBy,
		DriverID:              d.DriverID,
		ContainerID:           d.ContainerID,
		Status:                domain.ShipmentStatus(d.Status),
		PaymentStatus:         domain.PaymentStatus(d.PaymentStatus),
		PaymentMethod:         domain.PaymentMethod(d.PaymentMethod),
		Price:                 fromDecimal128(d.Price),
		PickupAddress:         fromAddressDoc(d.PickupAddress),
		DeliveryAddress:       fromAddressDoc(d.DeliveryAddress),
		ReceiverName:          d.ReceiverName,
		ReceiverPhoneNumber:   d.ReceiverPhoneNumber,
		ReceiverEmail:         d.ReceiverEmail,
		DeliveryType:          domain.DeliveryType(d.DeliveryType),
		PackageType:           d.PackageType,
		PackageDescription:    d.PackageDescription,
		ServiceType:           d.ServiceType,
		Weight:                d.Weight,
		Fragile:               d.Fragile,
		Notes:                 d.Notes,
		ScheduledPickupTime:   utcPtr(d.ScheduledPickupTime),
		EstimatedDeliveryTime: utcPtr(d.EstimatedDeliveryTime),
		CurrentLocation:       fromCoordinatesDoc(d.CurrentLocation),
		Images:                d.Images,
		CreatedAt:             d.CreatedAt.UTC(),
		UpdatedAt:             d.UpdatedAt.UTC(),
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if d.Dimensions != nil {
		s.Dimensions = &domain.Dimensions{Length: d.Dimensions.Length, Width: d.Dimensions.Width, Height: d.Dimensions.Height}
	}
	if g := d.PriceGuide; g != nil {
		s.PriceGuide = &domain.PriceGuideRef{
			ID:          g.ID,
			GuideNumber: g.GuideNumber,
			GuideName:   g.GuideName,
			Price:       fromDecimal128(g.Price),
		}
	}
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// scopeFilter adds the ownership restriction of scope to filter.
func scopeFilter(filter bson.M, scope ports.Scope) bson.M {
	switch {
	case scope.OwnerID != "" && scope.DriverID != "":
		filter["$or"] = bson.A{
			bson.M{"owner_id": scope.OwnerID},
			bson.M{"driver_id": scope.DriverID},
		}
	case scope.OwnerID != "":
		filter["owner_id"] = scope.OwnerID
	case scope.DriverID != "":
		filter["driver_id"] = scope.DriverID
	}
	return filter
}

// patchSet builds the $set document for patch. updated_at is always written.
func patchSet(patch ports.ShipmentPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}

	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.CurrentLocation != nil {
		set["current_location"] = toCoordinatesDoc(patch.CurrentLocation)
	}
	if patch.PaymentStatus != nil {
		set["payment_status"] = string(*patch.PaymentStatus)
	}
	if patch.PaymentMethod != nil {
		set["payment_method"] = string(*patch.PaymentMethod)
	}
	if patch.Price != nil {
		set["price"] = toDecimal128(*patch.Price)
	}
	if patch.Dimensions != nil {
		set["dimensions"] = toDimensionsDoc(patch.Dimensions)
	}
	if patch.Weight != nil {
		set["weight"] = *patch.Weight
	}
	if patch.PriceGuide != nil {
		set["price_guide"] = toPriceGuideRefDoc(patch.PriceGuide)
	}
	if c := patch.Contact; c != nil {
		set["pickup_address"] = toAddressDoc(c.PickupAddress)
		set["delivery_address"] = toAddressDoc(c.DeliveryAddress)
		set["receiver_name"] = c.ReceiverName
		set["receiver_phone_number"] = c.ReceiverPhoneNumber
		set["receiver_email"] = c.ReceiverEmail
		set["delivery_type"] = string(c.DeliveryType)
	}
	if patch.ScheduledPickupTime != nil {
		set["scheduled_pickup_time"] = patch.ScheduledPickupTime.UTC()
	}
	if patch.EstimatedDeliveryTime != nil {
		set["estimated_delivery_time"] = patch.EstimatedDeliveryTime.UTC()
	}
	if patch.DriverID != nil {
		set["driver_id"] = *patch.DriverID
	}
	if patch.ContainerID != nil {
		set["container_id"] = *patch.ContainerID
	}
	return set
}
