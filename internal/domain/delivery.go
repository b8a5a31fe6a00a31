package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusEscrowed  = "escrowed"
	StatusReleased  = "released"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Delivery is one instance of a file made available for retrieval, optionally
// gated by password, payment/escrow, expiry, and a download cap.
type Delivery struct {
	DeliveryID      uuid.UUID
	StorageKey      string
	FileName        string
	FileSize        int64
	MimeType        string
	ExpiresAt       *time.Time
	MaxDownloads    *int
	DownloadCount   int
	PasswordHash    string
	RequiresPayment bool
	PaymentAmount   *float64
	EscrowEnabled   bool
	Status          string
	LastAccessedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequiresPassword reports whether every access must pass the verifier.
func (d Delivery) RequiresPassword() bool {
	return d.PasswordHash != ""
}

// IsExpired evaluates the expiry gate at the given instant. A persisted
// expired status counts even when expires_at has since been cleared.
func (d Delivery) IsExpired(now time.Time) bool {
	if d.Status == StatusExpired {
		return true
	}
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}

// LimitReached reports whether the download cap has been consumed.
// Unbounded when max_downloads is absent.
func (d Delivery) LimitReached() bool {
	return d.MaxDownloads != nil && d.DownloadCount >= *d.MaxDownloads
}

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusRefunded  = "refunded"
)

// Transaction is a payment record referencing a delivery. The entitlement
// gate only ever consumes it as a boolean precondition.
type Transaction struct {
	TransactionID uuid.UUID
	DeliveryID    uuid.UUID
	Amount        float64
	Status        string
	ProviderRef   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AuditEntry is one append-only row per completed download attempt.
type AuditEntry struct {
	DeliveryID    uuid.UUID
	UserID        *uuid.UUID
	Action        string
	IPAddress     string
	UserAgent     string
	DownloadCount int
	Metadata      map[string]any
	OccurredAt    time.Time
}

const (
	AuditActionDownloaded      = "downloaded"
	AuditActionEscrowReleased  = "escrow_released"
	AuditActionPaymentRecorded = "payment_recorded"
)
