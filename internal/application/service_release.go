package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

// ReleaseEscrow transitions an escrow-enabled delivery to released after the
// seller proves the completion password. Once released, payment gating for
// the delivery is permanently satisfied.
func (s *Service) ReleaseEscrow(ctx context.Context, deliveryID uuid.UUID, req ReleaseEscrowRequest) (ReleaseEscrowResponse, error) {
	now := s.nowFn()

	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return ReleaseEscrowResponse{}, err
	}

	if !delivery.EscrowEnabled {
		return ReleaseEscrowResponse{}, fmt.Errorf("%w: delivery is not escrow-enabled", domain.ErrConflict)
	}
	if delivery.Status == domain.StatusReleased {
		// There is no reverse transition, so re-releasing is a safe no-op.
		return ReleaseEscrowResponse{DeliveryID: delivery.DeliveryID, Status: domain.StatusReleased}, nil
	}
	if delivery.Status != domain.StatusEscrowed {
		return ReleaseEscrowResponse{}, fmt.Errorf("%w: delivery status is %s", domain.ErrConflict, delivery.Status)
	}

	if !delivery.RequiresPassword() {
		return ReleaseEscrowResponse{}, fmt.Errorf("%w: delivery has no completion password", domain.ErrConflict)
	}
	if req.Password == "" {
		return ReleaseEscrowResponse{}, domain.ErrPasswordRequired
	}
	if _, err := s.VerifyPassword(ctx, delivery, req.Password, req.IPAddress, req.UserID, now); err != nil {
		return ReleaseEscrowResponse{}, err
	}

	if err := s.deliveries.ReleaseEscrow(ctx, delivery.DeliveryID, now); err != nil {
		return ReleaseEscrowResponse{}, fmt.Errorf("release escrow: %w", err)
	}

	s.appendAudit(ctx, domain.AuditEntry{
		DeliveryID:    delivery.DeliveryID,
		UserID:        req.UserID,
		Action:        domain.AuditActionEscrowReleased,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
		DownloadCount: delivery.DownloadCount,
		OccurredAt:    now,
	})
	s.enqueueEvent(ctx, domain.EventEscrowReleased, delivery.DeliveryID, map[string]any{
		"delivery_id": delivery.DeliveryID.String(),
		"released_at": now,
	})

	return ReleaseEscrowResponse{DeliveryID: delivery.DeliveryID, Status: domain.StatusReleased}, nil
}
