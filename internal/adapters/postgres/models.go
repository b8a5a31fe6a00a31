package postgres

import (
	"time"

	"github.com/google/uuid"
)

type deliveryModel struct {
	DeliveryID      uuid.UUID  `gorm:"column:delivery_id;type:uuid;default:gen_random_uuid();primaryKey"`
	StorageKey      string     `gorm:"column:storage_key"`
	FileName        string     `gorm:"column:file_name"`
	FileSize        int64      `gorm:"column:file_size"`
	MimeType        string     `gorm:"column:mime_type"`
	ExpiresAt       *time.Time `gorm:"column:expires_at"`
	MaxDownloads    *int       `gorm:"column:max_downloads"`
	DownloadCount   int        `gorm:"column:download_count"`
	PasswordHash    *string    `gorm:"column:password_hash"`
	RequiresPayment bool       `gorm:"column:requires_payment"`
	PaymentAmount   *float64   `gorm:"column:payment_amount"`
	EscrowEnabled   bool       `gorm:"column:escrow_enabled"`
	Status          string     `gorm:"column:status"`
	LastAccessedAt  *time.Time `gorm:"column:last_accessed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (deliveryModel) TableName() string { return "deliveries" }

type deliveryTransactionModel struct {
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;primaryKey"`
	DeliveryID    uuid.UUID `gorm:"column:delivery_id"`
	Amount        float64   `gorm:"column:amount"`
	Status        string    `gorm:"column:status"`
	ProviderRef   string    `gorm:"column:provider_ref"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (deliveryTransactionModel) TableName() string { return "delivery_transactions" }

type deliveryAuditModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	DeliveryID    uuid.UUID  `gorm:"column:delivery_id"`
	UserID        *uuid.UUID `gorm:"column:user_id"`
	Action        string     `gorm:"column:action"`
	IPAddress     *string    `gorm:"column:ip_address"`
	UserAgent     string     `gorm:"column:user_agent"`
	DownloadCount int        `gorm:"column:download_count"`
	Metadata      *string    `gorm:"column:metadata;type:jsonb"`
	OccurredAt    time.Time  `gorm:"column:occurred_at"`
}

func (deliveryAuditModel) TableName() string { return "delivery_audit_log" }

type deliveryOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (deliveryOutboxModel) TableName() string { return "delivery_outbox" }
