package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditEntryView struct {
	DeliveryID    uuid.UUID      `json:"delivery_id"`
	UserID        *uuid.UUID     `json:"user_id,omitempty"`
	Action        string         `json:"action"`
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	DownloadCount int            `json:"download_count"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// ListAuditLog returns the delivery's access trail, newest first. The
// delivery is fetched first so an unknown id is a not-found rather than an
// empty page.
func (s *Service) ListAuditLog(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]AuditEntryView, error) {
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.deliveries.GetByID(ctx, deliveryID); err != nil {
		return nil, err
	}

	entries, err := s.auditLog.ListByDelivery(ctx, deliveryID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]AuditEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, toAuditEntryView(entry))
	}
	return views, nil
}

func toAuditEntryView(entry domain.AuditEntry) AuditEntryView {
	return AuditEntryView{
		DeliveryID:    entry.DeliveryID,
		UserID:        entry.UserID,
		Action:        entry.Action,
		IPAddress:     entry.IPAddress,
		UserAgent:     entry.UserAgent,
		DownloadCount: entry.DownloadCount,
		Metadata:      entry.Metadata,
		OccurredAt:    entry.OccurredAt,
	}
}
