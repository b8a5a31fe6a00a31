package application

import (
	"context"

	"github.com/google/uuid"
)

// GetDeliveryStatus is the read-only pre-flight companion to
// RequestDownload. It evaluates the expiry and limit gates without any
// mutation, including the lazy expiry transition.
func (s *Service) GetDeliveryStatus(ctx context.Context, deliveryID uuid.UUID) (DeliveryStatusResponse, error) {
	now := s.nowFn()

	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return DeliveryStatusResponse{}, err
	}

	isExpired := delivery.IsExpired(now)
	limitReached := delivery.LimitReached()

	return DeliveryStatusResponse{
		DeliveryID:       delivery.DeliveryID,
		FileName:         delivery.FileName,
		FileSize:         delivery.FileSize,
		MimeType:         delivery.MimeType,
		RequiresPassword: delivery.RequiresPassword(),
		RequiresPayment:  delivery.RequiresPayment,
		PaymentAmount:    delivery.PaymentAmount,
		EscrowEnabled:    delivery.EscrowEnabled,
		Status:           delivery.Status,
		DownloadCount:    delivery.DownloadCount,
		MaxDownloads:     delivery.MaxDownloads,
		ExpiresAt:        delivery.ExpiresAt,
		IsExpired:        isExpired,
		LimitReached:     limitReached,
		CanDownload:      !isExpired && !limitReached,
	}, nil
}
