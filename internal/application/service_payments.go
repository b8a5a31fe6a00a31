package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

// RecordPayment ingests one payment-processor webhook. Replays keyed on the
// provider reference are absorbed by the upsert, so redelivered webhooks are
// harmless.
func (s *Service) RecordPayment(ctx context.Context, req PaymentWebhookRequest) (PaymentWebhookResponse, error) {
	if req.ProviderRef == "" {
		return PaymentWebhookResponse{}, fmt.Errorf("%w: provider_ref is required", domain.ErrInvalidInput)
	}
	switch req.Status {
	case domain.TransactionStatusPending, domain.TransactionStatusCompleted,
		domain.TransactionStatusFailed, domain.TransactionStatusRefunded:
	default:
		return PaymentWebhookResponse{}, fmt.Errorf("%w: unknown transaction status %q", domain.ErrInvalidInput, req.Status)
	}

	now := s.nowFn()

	delivery, err := s.deliveries.GetByID(ctx, req.DeliveryID)
	if err != nil {
		return PaymentWebhookResponse{}, err
	}

	if err := s.transactions.UpsertByProviderRef(ctx, domain.Transaction{
		TransactionID: uuid.New(),
		DeliveryID:    delivery.DeliveryID,
		Amount:        req.Amount,
		Status:        req.Status,
		ProviderRef:   req.ProviderRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		return PaymentWebhookResponse{}, fmt.Errorf("record transaction: %w", err)
	}

	deliveryStatus := delivery.Status
	// Escrowed and released rows are owned by the seller-release flow; the
	// webhook only ever advances plain paid deliveries.
	if req.Status == domain.TransactionStatusCompleted && !delivery.EscrowEnabled && delivery.Status == domain.StatusActive {
		if err := s.deliveries.MarkPaid(ctx, delivery.DeliveryID, now); err != nil {
			return PaymentWebhookResponse{}, fmt.Errorf("mark paid: %w", err)
		}
		deliveryStatus = domain.StatusPaid
	}

	s.appendAudit(ctx, domain.AuditEntry{
		DeliveryID:    delivery.DeliveryID,
		Action:        domain.AuditActionPaymentRecorded,
		DownloadCount: delivery.DownloadCount,
		Metadata: map[string]any{
			"provider_ref":       req.ProviderRef,
			"transaction_status": req.Status,
			"amount":             req.Amount,
		},
		OccurredAt: now,
	})
	s.enqueueEvent(ctx, domain.EventPaymentRecorded, delivery.DeliveryID, map[string]any{
		"delivery_id":        delivery.DeliveryID.String(),
		"provider_ref":       req.ProviderRef,
		"transaction_status": req.Status,
		"recorded_at":        now,
	})

	return PaymentWebhookResponse{
		DeliveryID:     delivery.DeliveryID,
		DeliveryStatus: deliveryStatus,
		Recorded:       true,
	}, nil
}
