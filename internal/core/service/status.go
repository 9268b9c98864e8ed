package service

import (
	"context"
	"fmt"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/pkg/metrics"
)

// UpdateStatus applies a new status. Any enum value may follow any other; the
// account holder is notified only when the stored value actually changes.
func (s *ShipmentService) UpdateStatus(ctx context.Context, caller ports.Caller, in ports.UpdateStatusInput) (*domain.Shipment, error) {
	status := domain.ShipmentStatus(in.Status)
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "must be one of: pending booked picked_up in_transit delivered cancelled")
	}

	scope := caller.ReadScope()
	current, err := s.repo.FindByID(ctx, in.ShipmentID, scope)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	oldStatus := current.Status

	updated, err := s.repo.Update(ctx, current.ID, scope, ports.ShipmentPatch{
		Status:          &status,
		CurrentLocation: in.CurrentLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if oldStatus == status {
		return updated, nil
	}

	metrics.StatusChangesTotal.WithLabelValues(string(oldStatus), string(status)).Inc()
	s.logger.Info().
		Str("shipment_id", updated.ID).
		Str("from", string(oldStatus)).
		Str("to", string(status)).
		Str("role", caller.Role).
		Msg("shipment status changed")

	owner := s.accountHolder(ctx, updated)
	s.dispatch(updated, domain.NotifyStatusUpdate, func() error {
		return s.notifier.SendStatusUpdate(ctx, owner, updated)
	})
	return updated, nil
}
