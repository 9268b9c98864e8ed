package handler

import (
	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createShipmentRequest, customerID, idempotencyKey string) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		CustomerID:          customerID,
		PickupAddress:       toAddress(req.PickupAddress),
		DeliveryAddress:     toAddress(req.DeliveryAddress),
		ReceiverName:        req.ReceiverName,
		ReceiverPhoneNumber: req.ReceiverPhoneNumber,
		ReceiverEmail:       req.ReceiverEmail,
		DeliveryType:        req.DeliveryType,
		PaymentMethod:       req.PaymentMethod,
		PackageType:         req.PackageType,
		PackageDescription:  req.PackageDescription,
		ServiceType:         req.ServiceType,
		Weight:              req.Weight,
		Dimensions:          toDimensions(req.Dimensions),
		Fragile:             req.Fragile,
		Notes:               req.Notes,
		ScheduledPickupTime: req.ScheduledPickupTime,
		IdempotencyKey:      idempotencyKey,
	}
}

func toAddress(a addressRequest) domain.Address {
	return domain.Address{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: toCoordinates(a.Coordinates),
	}
}

func toCoordinates(c *coordinatesRequest) *domain.Coordinates {
	if c == nil {
		return nil
	}
	return &domain.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

func toDimensions(d *dimensionsRequest) *domain.Dimensions {
	if d == nil {
		return nil
	}
	return &domain.Dimensions{Length: d.Length, Width: d.Width, Height: d.Height}
}

// toDimensionUpdate enforces that exactly one of the two field groups is sent.
func toDimensionUpdate(req updateDimensionsRequest) (domain.DimensionUpdate, error) {
	hasMeasurements := req.Dimensions != nil || req.Weight != nil
	hasGuide := req.PriceGuides != ""
	switch {
	case hasMeasurements && hasGuide:
		return nil, domain.NewValidationError("priceGuides", "cannot be combined with dimensions or weight")
	case hasGuide:
		return domain.PriceGuideSelection{GuideID: req.PriceGuides}, nil
	case hasMeasurements:
		return domain.PackageMeasurements{Dimensions: toDimensions(req.Dimensions), Weight: req.Weight}, nil
	default:
		return nil, domain.NewValidationError("dimensions", "dimensions, weight or priceGuides is required")
	}
}

// toAddressUpdate converts the partial body. Present addresses must be
// complete and a present e-mail must be valid.
func toAddressUpdate(req updateAddressRequest, validate func(any) error, isEmail func(string) bool) (domain.AddressUpdate, error) {
	for _, a := range []nullable[addressRequest]{req.PickupAddress, req.DeliveryAddress} {
		if a.present() {
			if err := validate(&a.Value); err != nil {
				return domain.AddressUpdate{}, err
			}
		}
	}
	if req.ReceiverEmail.present() && req.ReceiverEmail.Value != "" && !isEmail(req.ReceiverEmail.Value) {
		return domain.AddressUpdate{}, domain.NewValidationError("receiverEmail", "must be a valid email")
	}
	if req.DeliveryType.present() && !domain.DeliveryType(req.DeliveryType.Value).Valid() {
		return domain.AddressUpdate{}, domain.NewValidationError("deliveryType", "must be one of: park home")
	}

	u := domain.AddressUpdate{
		PickupAddress:       mapOptional(req.PickupAddress, toAddress),
		DeliveryAddress:     mapOptional(req.DeliveryAddress, toAddress),
		ReceiverName:        req.ReceiverName.optional(),
		ReceiverPhoneNumber: req.ReceiverPhoneNumber.optional(),
		ReceiverEmail:       req.ReceiverEmail.optional(),
		DeliveryType:        mapOptional(req.DeliveryType, func(s string) domain.DeliveryType { return domain.DeliveryType(s) }),
	}
	if u.Empty() {
		return u, domain.NewValidationError("body", "at least one field is required")
	}
	return u, nil
}

// --- Service result → HTTP response ---

func toShipmentResponse(s *domain.Shipment) shipmentResponse {
	resp := shipmentResponse{
		ID:                    s.ID,
		TrackingNumber:        s.TrackingNumber,
		UserID:                s.OwnerID,
		BookedBy:              s.BookedBy,
		DriverID:              s.DriverID,
		ContainerID:           s.ContainerID,
		Status:                string(s.Status),
		PaymentStatus:         string(s.PaymentStatus),
		PaymentMethod:         string(s.PaymentMethod),
		Price:                 s.Price.StringFixed(2),
		PickupAddress:         toAddressResponse(s.PickupAddress),
		DeliveryAddress:       toAddressResponse(s.DeliveryAddress),
		ReceiverName:          s.ReceiverName,
		ReceiverPhoneNumber:   s.ReceiverPhoneNumber,
		ReceiverEmail:         s.ReceiverEmail,
		DeliveryType:          string(s.DeliveryType),
		PackageType:           s.PackageType,
		PackageDescription:    s.PackageDescription,
		ServiceType:           s.ServiceType,
		Weight:                s.Weight,
		Fragile:               s.Fragile,
		Notes:                 s.Notes,
		ScheduledPickupTime:   s.ScheduledPickupTime,
		EstimatedDeliveryTime: s.EstimatedDeliveryTime,
		CurrentLocation:       toCoordinatesResponse(s.CurrentLocation),
		Images:                s.Images,
		CreatedAt:             s.CreatedAt.UTC(),
		UpdatedAt:             s.UpdatedAt.UTC(),
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if d := s.Dimensions; d != nil {
		resp.Dimensions = &dimensionsResponse{Length: d.Length, Width: d.Width, Height: d.Height}
	}
	if g := s.PriceGuide; g != nil {
		resp.PriceGuide = &priceGuideRefResponse{
			ID:          g.ID,
			GuideNumber: g.GuideNumber,
			GuideName:   g.GuideName,
			Price:       g.Price.StringFixed(2),
		}
	}
	return resp
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		PostalCode:  a.PostalCode,
		Coordinates: toCoordinatesResponse(a.Coordinates),
	}
}

func toCoordinatesResponse(c *domain.Coordinates) *coordinatesResponse {
	if c == nil {
		return nil
	}
	return &coordinatesResponse{Lat: c.Lat, Lng: c.Lng}
}

func toListResponse(r *ports.ListShipmentsResult) listShipmentsResponse {
	items := make([]shipmentResponse, 0, len(r.Items))
	for _, s := range r.Items {
		items = append(items, toShipmentResponse(s))
	}
	return listShipmentsResponse{
		Shipments: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

func toTrackingResponse(v *domain.TrackingView) trackingResponse {
	return trackingResponse{
		TrackingNumber:        v.TrackingNumber,
		Status:                string(v.Status),
		EstimatedDeliveryTime: v.EstimatedDeliveryTime,
		PickupAddress:         toAddressResponse(v.PickupAddress),
		DeliveryAddress:       toAddressResponse(v.DeliveryAddress),
	}
}

func toStatsResponse(s *ports.ShipmentStats) dashboardStatsResponse {
	return dashboardStatsResponse{
		TotalShipments:     s.Total,
		PendingShipments:   s.Pending,
		DeliveredShipments: s.Delivered,
		CancelledShipments: s.Cancelled,
		TotalRevenue:       s.Revenue.StringFixed(2),
	}
}
