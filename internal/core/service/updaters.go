package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/pkg/metrics"
)

const (
	photoFolder    = "shipments"
	maxPhotosBatch = 10
)

// UpdateDimensions writes exactly one field group: measurements or a price guide.
func (s *ShipmentService) UpdateDimensions(ctx context.Context, caller ports.Caller, id string, update domain.DimensionUpdate) (*domain.Shipment, error) {
	var patch ports.ShipmentPatch

	switch u := update.(type) {
	case domain.PackageMeasurements:
		if u.Dimensions == nil && u.Weight == nil {
			return nil, domain.NewValidationError("dimensions", "dimensions or weight is required")
		}
		if d := u.Dimensions; d != nil && (d.Length <= 0 || d.Width <= 0 || d.Height <= 0) {
			return nil, domain.NewValidationError("dimensions", "length, width and height must be greater than 0")
		}
		if u.Weight != nil && *u.Weight <= 0 {
			return nil, domain.NewValidationError("weight", "must be greater than 0")
		}
		patch.Dimensions = u.Dimensions
		patch.Weight = u.Weight

	case domain.PriceGuideSelection:
		if u.GuideID == "" {
			return nil, domain.NewValidationError("priceGuides", "is required")
		}
		guide, err := s.guides.FindByID(ctx, u.GuideID)
		if err != nil {
			return nil, fmt.Errorf("update dimensions: %w", err)
		}
		ref := guide.Ref()
		patch.PriceGuide = &ref

	default:
		return nil, domain.NewValidationError("dimensions", "dimensions, weight or priceGuides is required")
	}

	updated, err := s.repo.Update(ctx, id, caller.Scope(), patch)
	if err != nil {
		return nil, fmt.Errorf("update dimensions: %w", err)
	}
	s.logger.Info().Str("shipment_id", id).Msg("package dimensions updated")
	return updated, nil
}

// UpdateAddress merges a partial address and receiver update into the shipment.
func (s *ShipmentService) UpdateAddress(ctx context.Context, caller ports.Caller, id string, update domain.AddressUpdate) (*domain.Shipment, error) {
	if update.Empty() {
		return nil, domain.NewValidationError("deliveryAddress", "at least one field is required")
	}
	if update.DeliveryType.Set && !update.DeliveryType.Null && !update.DeliveryType.Value.Valid() {
		return nil, domain.NewValidationError("deliveryType", "must be one of: park home")
	}

	scope := caller.Scope()
	current, err := s.repo.FindByID(ctx, id, scope)
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	current.ApplyAddressUpdate(update)

	updated, err := s.repo.Update(ctx, current.ID, scope, ports.ShipmentPatch{
		Contact: &ports.ContactFields{
			PickupAddress:       current.PickupAddress,
			DeliveryAddress:     current.DeliveryAddress,
			ReceiverName:        current.ReceiverName,
			ReceiverPhoneNumber: current.ReceiverPhoneNumber,
			ReceiverEmail:       current.ReceiverEmail,
			DeliveryType:        current.DeliveryType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("update address: %w", err)
	}
	s.logger.Info().Str("shipment_id", id).Msg("delivery address updated")
	return updated, nil
}

// SchedulePickup writes the pickup time and the derived delivery estimate together.
func (s *ShipmentService) SchedulePickup(ctx context.Context, caller ports.Caller, id string, at time.Time) (*domain.Shipment, error) {
	if at.IsZero() {
		return nil, domain.NewValidationError("scheduledPickupTime", "is required")
	}
	estimated := domain.EstimateDelivery(at)

	updated, err := s.repo.Update(ctx, id, caller.Scope(), ports.ShipmentPatch{
		ScheduledPickupTime:   &at,
		EstimatedDeliveryTime: &estimated,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule pickup: %w", err)
	}
	// Stores normalize to UTC; answer in the offset the caller sent.
	updated.ScheduledPickupTime = &at
	updated.EstimatedDeliveryTime = &estimated
	s.logger.Info().
		Str("shipment_id", id).
		Time("scheduled_pickup", at).
		Time("estimated_delivery", estimated).
		Msg("pickup scheduled")
	return updated, nil
}

// AddPhotos uploads the batch concurrently and appends the resulting URLs in
// input order. A single failed upload aborts the batch and nothing is persisted.
func (s *ShipmentService) AddPhotos(ctx context.Context, caller ports.Caller, id string, files []ports.FileUpload) (*domain.Shipment, error) {
	if len(files) == 0 {
		return nil, domain.NewValidationError("images", "at least one file is required")
	}
	if len(files) > maxPhotosBatch {
		return nil, domain.NewValidationError("images", fmt.Sprintf("at most %d files per request", maxPhotosBatch))
	}

	scope := caller.Scope()
	if _, err := s.repo.FindByID(ctx, id, scope); err != nil {
		return nil, fmt.Errorf("add photos: %w", err)
	}

	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			url, err := s.storage.Upload(gctx, file, photoFolder)
			if err != nil {
				metrics.PhotoUploadsTotal.WithLabelValues("error").Inc()
				return fmt.Errorf("upload %q: %w", file.Filename, err)
			}
			metrics.PhotoUploadsTotal.WithLabelValues("ok").Inc()
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("shipment_id", id).Int("files", len(files)).Msg("photo batch rejected")
		s.discardUploads(ctx, id, urls)
		return nil, fmt.Errorf("add photos: %w: %v", domain.ErrUpload, err)
	}

	updated, err := s.repo.AppendImages(ctx, id, scope, urls)
	if err != nil {
		s.discardUploads(ctx, id, urls)
		return nil, fmt.Errorf("add photos: %w", err)
	}
	s.logger.Info().Str("shipment_id", id).Int("files", len(urls)).Msg("photos added")
	return updated, nil
}

// discardUploads deletes the objects of a rejected batch. Empty entries are
// uploads that never completed.
func (s *ShipmentService) discardUploads(ctx context.Context, id string, urls []string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.storage.Delete(ctx, url); err != nil {
			s.logger.Warn().Err(err).Str("shipment_id", id).Str("url", url).Msg("failed to delete orphaned photo")
		}
	}
}
