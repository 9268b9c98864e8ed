package service

import (
	"context"

	"github.com/jingally/booking-system/internal/core/domain"
)

// accountHolder resolves the owner of s for notifications. A failed lookup
// still yields an addressee so the notification attempt is made and logged.
func (s *ShipmentService) accountHolder(ctx context.Context, shipment *domain.Shipment) domain.Account {
	user, err := s.users.FindByID(ctx, shipment.OwnerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner_id", shipment.OwnerID).Msg("account holder lookup failed")
		return domain.Account{ID: shipment.OwnerID}
	}
	return user.Account()
}

// dispatch runs one notification call. Failures are logged and never returned.
func (s *ShipmentService) dispatch(shipment *domain.Shipment, kind domain.NotificationKind, send func() error) {
	if err := send(); err != nil {
		s.logger.Warn().
			Err(err).
			Str("shipment_id", shipment.ID).
			Str("kind", string(kind)).
			Msg("notification failed")
	}
}
