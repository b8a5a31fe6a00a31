package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type deliveryRepository struct {
	db *gorm.DB
}

func (r *deliveryRepository) GetByID(ctx context.Context, deliveryID uuid.UUID) (domain.Delivery, error) {
	var row deliveryModel
	if err := r.db.WithContext(ctx).Where("delivery_id = ?", deliveryID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Delivery{}, domain.ErrNotFound
		}
		return domain.Delivery{}, err
	}
	return toDomainDelivery(row), nil
}

// MarkExpired is a set-if-not-already-expired update: last-writer-wins is
// acceptable because every racing writer targets the identical value.
func (r *deliveryRepository) MarkExpired(ctx context.Context, deliveryID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("delivery_id = ?", deliveryID).
		Where("status <> ?", domain.StatusExpired).
		Updates(map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": at,
		}).Error
}

// RecordDownload applies the counter bump as a single relative update so
// concurrent increments are never lost, and returns the resulting count.
func (r *deliveryRepository) RecordDownload(ctx context.Context, deliveryID uuid.UUID, at time.Time) (int, error) {
	var row deliveryModel
	result := r.db.WithContext(ctx).
		Model(&row).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "download_count"}}}).
		Where("delivery_id = ?", deliveryID).
		Updates(map[string]any{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_accessed_at": at,
			"updated_at":       at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return row.DownloadCount, nil
}

func (r *deliveryRepository) ReleaseEscrow(ctx context.Context, deliveryID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("delivery_id = ?", deliveryID).
		Where("status = ?", domain.StatusEscrowed).
		Updates(map[string]any{
			"status":     domain.StatusReleased,
			"updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either already released (fine) or in a state that must not release.
		var row deliveryModel
		if err := r.db.WithContext(ctx).Select("status").Where("delivery_id = ?", deliveryID).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if row.Status == domain.StatusReleased {
			return nil
		}
		return fmt.Errorf("%w: delivery status is %s", domain.ErrConflict, row.Status)
	}
	return nil
}

func (r *deliveryRepository) MarkPaid(ctx context.Context, deliveryID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&deliveryModel{}).
		Where("delivery_id = ?", deliveryID).
		Where("status = ?", domain.StatusActive).
		Updates(map[string]any{
			"status":     domain.StatusPaid,
			"updated_at": at,
		}).Error
}
