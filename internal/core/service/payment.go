package service

import (
	"context"
	"fmt"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/pkg/metrics"
)

// UpdatePayment records a payment outcome in one write. A paid shipment is
// booked in the same write. Afterwards the payer, the receiver (when an e-mail
// is on file) and every admin inbox are notified, in that order, each
// independently of the others.
func (s *ShipmentService) UpdatePayment(ctx context.Context, caller ports.Caller, in ports.UpdatePaymentInput) (*domain.Shipment, error) {
	paymentStatus := domain.PaymentStatus(in.PaymentStatus)
	if !paymentStatus.Valid() {
		return nil, domain.NewValidationError("paymentStatus", "must be one of: unpaid pending paid failed")
	}
	method := domain.PaymentMethod(in.Method)
	if !method.Valid() {
		return nil, domain.NewValidationError("method", "must be one of: paypal bank_transfer cash part_payment")
	}
	if in.Amount.IsNegative() {
		return nil, domain.NewValidationError("amount", "must not be negative")
	}

	scope := caller.Scope()
	if _, err := s.repo.FindByID(ctx, in.ShipmentID, scope); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	price := in.Amount.Round(2)
	patch := ports.ShipmentPatch{
		PaymentStatus: &paymentStatus,
		PaymentMethod: &method,
		Price:         &price,
	}
	if paymentStatus == domain.PaymentPaid {
		booked := domain.StatusBooked
		patch.Status = &booked
	}

	updated, err := s.repo.Update(ctx, in.ShipmentID, scope, patch)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	metrics.PaymentsRecordedTotal.WithLabelValues(string(paymentStatus)).Inc()
	s.logger.Info().
		Str("shipment_id", updated.ID).
		Str("payment_status", string(paymentStatus)).
		Str("amount", price.StringFixed(2)).
		Msg("payment recorded")

	payer := s.accountHolder(ctx, updated)
	s.dispatch(updated, domain.NotifyBookingConfirmation, func() error {
		return s.notifier.SendBookingConfirmation(ctx, payer, updated)
	})

	if updated.ReceiverEmail != "" {
		receiver := domain.ReceiverAccount(updated)
		s.dispatch(updated, domain.NotifyPaymentConfirmation, func() error {
			return s.notifier.SendPaymentConfirmation(ctx, receiver, updated)
		})
	}

	for _, addr := range s.adminEmails {
		s.dispatch(updated, domain.NotifyAdminBooking, func() error {
			return s.notifier.SendAdminBookingNotification(ctx, addr, payer, updated)
		})
	}

	return updated, nil
}
