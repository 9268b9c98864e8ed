package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jingally/booking-system/internal/api/middleware"
	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

// stubShipmentService embeds the interface so unused methods panic loudly.
type stubShipmentService struct {
	ports.ShipmentService

	createFn     func(ctx context.Context, caller ports.Caller, in ports.CreateShipmentInput) (*ports.CreateShipmentResult, error)
	getFn        func(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error)
	listFn       func(ctx context.Context, caller ports.Caller, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error)
	trackFn      func(ctx context.Context, trackingNumber string) (*domain.TrackingView, error)
	statusFn     func(ctx context.Context, caller ports.Caller, in ports.UpdateStatusInput) (*domain.Shipment, error)
	paymentFn    func(ctx context.Context, caller ports.Caller, in ports.UpdatePaymentInput) (*domain.Shipment, error)
	dimensionsFn func(ctx context.Context, caller ports.Caller, id string, u domain.DimensionUpdate) (*domain.Shipment, error)
	addressFn    func(ctx context.Context, caller ports.Caller, id string, u domain.AddressUpdate) (*domain.Shipment, error)
	pickupFn     func(ctx context.Context, caller ports.Caller, id string, at time.Time) (*domain.Shipment, error)
	photosFn     func(ctx context.Context, caller ports.Caller, id string, files []ports.FileUpload) (*domain.Shipment, error)
	cancelFn     func(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error)
	driverFn     func(ctx context.Context, caller ports.Caller, shipmentID, driverID string) (*domain.Shipment, error)
	statsFn      func(ctx context.Context, caller ports.Caller) (*ports.ShipmentStats, error)
}

func (s *stubShipmentService) CreateShipment(ctx context.Context, caller ports.Caller, in ports.CreateShipmentInput) (*ports.CreateShipmentResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubShipmentService) GetShipment(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubShipmentService) ListShipments(ctx context.Context, caller ports.Caller, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	return s.listFn(ctx, caller, in)
}

func (s *stubShipmentService) TrackShipment(ctx context.Context, trackingNumber string) (*domain.TrackingView, error) {
	return s.trackFn(ctx, trackingNumber)
}

func (s *stubShipmentService) UpdateStatus(ctx context.Context, caller ports.Caller, in ports.UpdateStatusInput) (*domain.Shipment, error) {
	return s.statusFn(ctx, caller, in)
}

func (s *stubShipmentService) UpdatePayment(ctx context.Context, caller ports.Caller, in ports.UpdatePaymentInput) (*domain.Shipment, error) {
	return s.paymentFn(ctx, caller, in)
}

func (s *stubShipmentService) UpdateDimensions(ctx context.Context, caller ports.Caller, id string, u domain.DimensionUpdate) (*domain.Shipment, error) {
	return s.dimensionsFn(ctx, caller, id, u)
}

func (s *stubShipmentService) UpdateAddress(ctx context.Context, caller ports.Caller, id string, u domain.AddressUpdate) (*domain.Shipment, error) {
	return s.addressFn(ctx, caller, id, u)
}

func (s *stubShipmentService) SchedulePickup(ctx context.Context, caller ports.Caller, id string, at time.Time) (*domain.Shipment, error) {
	return s.pickupFn(ctx, caller, id, at)
}

func (s *stubShipmentService) AddPhotos(ctx context.Context, caller ports.Caller, id string, files []ports.FileUpload) (*domain.Shipment, error) {
	return s.photosFn(ctx, caller, id, files)
}

func (s *stubShipmentService) Cancel(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error) {
	return s.cancelFn(ctx, caller, id)
}

func (s *stubShipmentService) AssignDriver(ctx context.Context, caller ports.Caller, shipmentID, driverID string) (*domain.Shipment, error) {
	return s.driverFn(ctx, caller, shipmentID, driverID)
}

func (s *stubShipmentService) DashboardStats(ctx context.Context, caller ports.Caller) (*ports.ShipmentStats, error) {
	return s.statsFn(ctx, caller)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// withCaller sets the claims the Auth middleware would have injected.
func withCaller(c echo.Context, userID, role string) echo.Context {
	c.Set(middleware.KeyUserID, userID)
	c.Set(middleware.KeyRole, role)
	return c
}

func newContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sampleShipment() *domain.Shipment {
	return &domain.Shipment{
		ID:             "s1",
		TrackingNumber: "TRK170000000012345",
		OwnerID:        "u1",
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentUnpaid,
		PaymentMethod:  domain.MethodPayPal,
		DeliveryType:   domain.DeliveryHome,
		PackageType:    "box",
		Images:         []string{},
	}
}
