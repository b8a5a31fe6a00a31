package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Insert(ctx context.Context, entry domain.AuditEntry) error {
	var metadata *string
	if len(entry.Metadata) > 0 {
		if raw, err := json.Marshal(entry.Metadata); err == nil {
			s := string(raw)
			metadata = &s
		}
	}
	rec := deliveryAuditModel{
		DeliveryID:    entry.DeliveryID,
		UserID:        entry.UserID,
		Action:        entry.Action,
		IPAddress:     nullableString(entry.IPAddress),
		UserAgent:     entry.UserAgent,
		DownloadCount: entry.DownloadCount,
		Metadata:      metadata,
		OccurredAt:    entry.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *auditLogRepository) ListByDelivery(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	var rows []deliveryAuditModel
	err := r.db.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		Order("occurred_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainAuditEntry(row))
	}
	return result, nil
}
