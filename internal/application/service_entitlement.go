package application

import (
	"context"
	"fmt"

	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

// checkEntitlement decides whether payment preconditions are satisfied.
// Escrow is a strictly stronger gate than plain payment-required: no
// completed transaction substitutes for the seller releasing the funds.
func (s *Service) checkEntitlement(ctx context.Context, delivery domain.Delivery) error {
	if !delivery.RequiresPayment {
		return nil
	}

	amount := 0.0
	if delivery.PaymentAmount != nil {
		amount = *delivery.PaymentAmount
	}

	if delivery.EscrowEnabled {
		if delivery.Status == domain.StatusReleased {
			return nil
		}
		return &domain.PaymentDenial{Amount: amount, Status: delivery.Status}
	}

	if delivery.Status == domain.StatusPaid || delivery.Status == domain.StatusReleased {
		return nil
	}

	// The status column can lag the payment webhook; a completed transaction
	// referencing the delivery settles the gate either way.
	completed, err := s.transactions.HasCompletedForDelivery(ctx, delivery.DeliveryID)
	if err != nil {
		return fmt.Errorf("check completed transactions: %w", err)
	}
	if completed {
		return nil
	}

	return &domain.PaymentDenial{Amount: amount, Status: delivery.Status}
}
