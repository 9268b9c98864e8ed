package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/pkg/metrics"
	"github.com/jingally/booking-system/pkg/retry"
)

const (
	maxTrackingAttempts = 5
	defaultPageSize     = 20
	maxPageSize         = 100
)

// ShipmentDeps groups the collaborators of ShipmentService.
type ShipmentDeps struct {
	Shipments   ports.ShipmentRepository
	Users       ports.UserRepository
	PriceGuides ports.PriceGuideRepository
	Notifier    ports.Notifier
	Storage     ports.ObjectStorage
	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency ports.IdempotencyStore
	// AdminEmails are the operational inboxes copied on every recorded payment.
	AdminEmails []string
}

type ShipmentService struct {
	repo        ports.ShipmentRepository
	users       ports.UserRepository
	guides      ports.PriceGuideRepository
	notifier    ports.Notifier
	storage     ports.ObjectStorage
	idempotency ports.IdempotencyStore
	adminEmails []string
	tracking    *TrackingGenerator
	now         func() time.Time
	logger      zerolog.Logger
}

func NewShipmentService(deps ShipmentDeps, logger zerolog.Logger) *ShipmentService {
	return &ShipmentService{
		repo:        deps.Shipments,
		users:       deps.Users,
		guides:      deps.PriceGuides,
		notifier:    deps.Notifier,
		storage:     deps.Storage,
		idempotency: deps.Idempotency,
		adminEmails: deps.AdminEmails,
		tracking:    NewTrackingGenerator(ShipmentTrackingPrefix),
		now:         time.Now,
		logger:      logger,
	}
}

// CreateShipment creates a new shipment owned by the caller, or by
// in.CustomerID when an admin books on a customer's behalf.
func (s *ShipmentService) CreateShipment(ctx context.Context, caller ports.Caller, in ports.CreateShipmentInput) (*ports.CreateShipmentResult, error) {
	ownerID := caller.UserID
	bookedBy := ""
	if in.CustomerID != "" && in.CustomerID != caller.UserID {
		if !caller.IsAdmin() {
			return nil, domain.ErrForbidden
		}
		if _, err := s.users.FindByID(ctx, in.CustomerID); err != nil {
			return nil, fmt.Errorf("create shipment: %w", err)
		}
		ownerID = in.CustomerID
		bookedBy = caller.UserID
	}

	shipment, err := s.newShipment(ownerID, bookedBy, in)
	if err != nil {
		return nil, err
	}

	existing, reserved, err := s.reserve(ctx, ownerID, in.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	if existing != nil {
		return &ports.CreateShipmentResult{Shipment: existing, AlreadyExisted: true}, nil
	}

	err = retry.Retry(ctx, func() error {
		shipment.TrackingNumber = s.tracking.Next()
		err := s.repo.Create(ctx, shipment)
		if errors.Is(err, domain.ErrTrackingConflict) {
			metrics.TrackingCollisionsTotal.Inc()
		}
		return err
	}, retry.Config{
		MaxAttempts:     maxTrackingAttempts,
		Backoff:         &retry.ConstantBackoff{Interval: time.Millisecond},
		Logger:          s.logger,
		RetryableErrors: []error{domain.ErrTrackingConflict},
	})
	if err != nil {
		s.logger.Error().Err(err).Str("owner_id", ownerID).Msg("failed to create shipment")
		if reserved {
			if relErr := s.idempotency.Release(ctx, ownerID, in.IdempotencyKey); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create shipment: %w", err)
	}

	if reserved {
		if err := s.idempotency.Complete(ctx, ownerID, in.IdempotencyKey, shipment.ID); err != nil {
			s.logger.Warn().Err(err).Str("shipment_id", shipment.ID).Msg("failed to store idempotency key")
		}
	}

	metrics.ShipmentsCreatedTotal.WithLabelValues(string(shipment.DeliveryType)).Inc()
	s.logger.Info().
		Str("shipment_id", shipment.ID).
		Str("tracking_number", shipment.TrackingNumber).
		Str("owner_id", ownerID).
		Msg("shipment created")

	owner := s.accountHolder(ctx, shipment)
	s.dispatch(shipment, domain.NotifyBookingConfirmation, func() error {
		return s.notifier.SendBookingConfirmation(ctx, owner, shipment)
	})

	return &ports.CreateShipmentResult{Shipment: shipment}, nil
}

// reserve claims the Idempotency-Key before anything is written. It returns
// the shipment an earlier request with the same key created, or
// domain.ErrIdempotencyInProgress while that request has not finished. Store
// failures degrade to an unguarded creation.
func (s *ShipmentService) reserve(ctx context.Context, ownerID, key string) (*domain.Shipment, bool, error) {
	if key == "" || s.idempotency == nil {
		return nil, false, nil
	}
	id, reserved, err := s.idempotency.Reserve(ctx, ownerID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if id == "" {
		return nil, false, domain.ErrIdempotencyInProgress
	}
	existing, err := s.repo.FindByID(ctx, id, ports.Scope{OwnerID: ownerID})
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotent shipment not found, creating anyway")
		return nil, false, nil
	}
	s.logger.Info().Str("idempotency_key", key).Str("tracking_number", existing.TrackingNumber).Msg("idempotent replay")
	return existing, false, nil
}

func (s *ShipmentService) newShipment(ownerID, bookedBy string, in ports.CreateShipmentInput) (*domain.Shipment, error) {
	deliveryType := domain.DeliveryHome
	if in.DeliveryType != "" {
		deliveryType = domain.DeliveryType(in.DeliveryType)
		if !deliveryType.Valid() {
			return nil, domain.NewValidationError("deliveryType", "must be one of: park home")
		}
	}
	method := domain.MethodPayPal
	if in.PaymentMethod != "" {
		method = domain.PaymentMethod(in.PaymentMethod)
		if !method.Valid() {
			return nil, domain.NewValidationError("paymentMethod", "must be one of: paypal bank_transfer cash part_payment")
		}
	}

	now := s.now().UTC()
	shipment := &domain.Shipment{
		ID:                  uuid.NewString(),
		OwnerID:             ownerID,
		BookedBy:            bookedBy,
		Status:              domain.StatusPending,
		PaymentStatus:       domain.PaymentUnpaid,
		PaymentMethod:       method,
		Price:               decimal.Zero,
		PickupAddress:       in.PickupAddress,
		DeliveryAddress:     in.DeliveryAddress,
		ReceiverName:        in.ReceiverName,
		ReceiverPhoneNumber: in.ReceiverPhoneNumber,
		ReceiverEmail:       in.ReceiverEmail,
		DeliveryType:        deliveryType,
		PackageType:         in.PackageType,
		PackageDescription:  in.PackageDescription,
		ServiceType:         in.ServiceType,
		Weight:              in.Weight,
		Dimensions:          in.Dimensions,
		Fragile:             in.Fragile,
		Notes:               in.Notes,
		Images:              []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if in.ScheduledPickupTime != nil {
		shipment.SchedulePickup(*in.ScheduledPickupTime)
	}
	return shipment, nil
}

// GetShipment returns a shipment visible to the caller.
func (s *ShipmentService) GetShipment(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id, caller.ReadScope())
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

// ListShipments returns the caller's shipments, newest first.
func (s *ShipmentService) ListShipments(ctx context.Context, caller ports.Caller, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	if in.Status != "" && !domain.ShipmentStatus(in.Status).Valid() {
		return nil, domain.NewValidationError("status", "unknown shipment status")
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	items, total, err := s.repo.List(ctx, ports.ListShipmentsFilter{
		Scope:  caller.ReadScope(),
		Status: in.Status,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// TrackShipment is the public lookup by tracking number.
func (s *ShipmentService) TrackShipment(ctx context.Context, trackingNumber string) (*domain.TrackingView, error) {
	shipment, err := s.repo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("track shipment: %w", err)
	}
	view := shipment.Track()
	return &view, nil
}

// Cancel moves a non-terminal shipment to cancelled. No notification is sent.
func (s *ShipmentService) Cancel(ctx context.Context, caller ports.Caller, id string) (*domain.Shipment, error) {
	scope := caller.Scope()
	current, err := s.repo.FindByID(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("cancel shipment: %w", err)
	}
	if !current.Status.CanCancel() {
		return nil, fmt.Errorf("cancel shipment: %w (status %s)", domain.ErrInvalidTransition, current.Status)
	}

	status := domain.StatusCancelled
	updated, err := s.repo.Update(ctx, current.ID, scope, ports.ShipmentPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("cancel shipment: %w", err)
	}

	metrics.StatusChangesTotal.WithLabelValues(string(current.Status), string(status)).Inc()
	s.logger.Info().Str("shipment_id", id).Str("from", string(current.Status)).Msg("shipment cancelled")
	return updated, nil
}

// AssignDriver attaches an existing driver to a shipment. Admin only.
func (s *ShipmentService) AssignDriver(ctx context.Context, caller ports.Caller, shipmentID, driverID string) (*domain.Shipment, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	driver, err := s.users.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrDriverNotFound
		}
		return nil, fmt.Errorf("assign driver: %w", err)
	}
	if driver.Role != domain.RoleDriver {
		return nil, domain.ErrDriverNotFound
	}

	updated, err := s.repo.Update(ctx, shipmentID, ports.Scope{}, ports.ShipmentPatch{DriverID: &driverID})
	if err != nil {
		return nil, fmt.Errorf("assign driver: %w", err)
	}
	s.logger.Info().Str("shipment_id", shipmentID).Str("driver_id", driverID).Msg("driver assigned")
	return updated, nil
}

// AssignContainer records the container a shipment travels in. Admin only.
func (s *ShipmentService) AssignContainer(ctx context.Context, caller ports.Caller, shipmentID, containerID string) (*domain.Shipment, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if containerID == "" {
		return nil, domain.NewValidationError("containerId", "is required")
	}
	updated, err := s.repo.Update(ctx, shipmentID, ports.Scope{}, ports.ShipmentPatch{ContainerID: &containerID})
	if err != nil {
		return nil, fmt.Errorf("assign container: %w", err)
	}
	s.logger.Info().Str("shipment_id", shipmentID).Str("container_id", containerID).Msg("container assigned")
	return updated, nil
}

// DashboardStats aggregates shipment counters and paid revenue. Admin only.
func (s *ShipmentService) DashboardStats(ctx context.Context, caller ports.Caller) (*ports.ShipmentStats, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}
