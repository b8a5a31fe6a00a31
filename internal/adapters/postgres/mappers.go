package postgres

import (
	"encoding/json"
	"strings"

	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

func toDomainDelivery(row deliveryModel) domain.Delivery {
	passwordHash := ""
	if row.PasswordHash != nil {
		passwordHash = *row.PasswordHash
	}
	return domain.Delivery{
		DeliveryID:      row.DeliveryID,
		StorageKey:      row.StorageKey,
		FileName:        row.FileName,
		FileSize:        row.FileSize,
		MimeType:        row.MimeType,
		ExpiresAt:       row.ExpiresAt,
		MaxDownloads:    row.MaxDownloads,
		DownloadCount:   row.DownloadCount,
		PasswordHash:    passwordHash,
		RequiresPayment: row.RequiresPayment,
		PaymentAmount:   row.PaymentAmount,
		EscrowEnabled:   row.EscrowEnabled,
		Status:          row.Status,
		LastAccessedAt:  row.LastAccessedAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainAuditEntry(row deliveryAuditModel) domain.AuditEntry {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	var metadata map[string]any
	if row.Metadata != nil && *row.Metadata != "" {
		_ = json.Unmarshal([]byte(*row.Metadata), &metadata)
	}
	return domain.AuditEntry{
		DeliveryID:    row.DeliveryID,
		UserID:        row.UserID,
		Action:        row.Action,
		IPAddress:     ip,
		UserAgent:     row.UserAgent,
		DownloadCount: row.DownloadCount,
		Metadata:      metadata,
		OccurredAt:    row.OccurredAt,
	}
}

func nullableString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
