package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) HasCompletedForDelivery(ctx context.Context, deliveryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&deliveryTransactionModel{}).
		Where("delivery_id = ?", deliveryID).
		Where("status = ?", domain.TransactionStatusCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertByProviderRef makes webhook ingestion replay-safe: a redelivered
// webhook updates the same row instead of inserting a duplicate.
func (r *transactionRepository) UpsertByProviderRef(ctx context.Context, txn domain.Transaction) error {
	rec := deliveryTransactionModel{
		TransactionID: txn.TransactionID,
		DeliveryID:    txn.DeliveryID,
		Amount:        txn.Amount,
		Status:        txn.Status,
		ProviderRef:   txn.ProviderRef,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_ref"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":     txn.Status,
				"amount":     txn.Amount,
				"updated_at": txn.UpdatedAt,
			}),
		}).
		Create(&rec).Error
}
