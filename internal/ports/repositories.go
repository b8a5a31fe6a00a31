package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
)

// DeliveryRepository owns the single shared mutable resource of the pipeline:
// the delivery row. Only the dispatcher writes through it.
type DeliveryRepository interface {
	GetByID(ctx context.Context, deliveryID uuid.UUID) (domain.Delivery, error)
	// MarkExpired performs the lazy active->expired transition as an
	// idempotent set-if-not-already-expired update. Concurrent writers racing
	// on the same row converge on the identical target value.
	MarkExpired(ctx context.Context, deliveryID uuid.UUID, at time.Time) error
	// RecordDownload increments download_count by one and stamps
	// last_accessed_at, returning the resulting count. The increment is a
	// single relative update so it is never lost, though the limit check
	// remains a prior read.
	RecordDownload(ctx context.Context, deliveryID uuid.UUID, at time.Time) (int, error)
	// ReleaseEscrow transitions escrowed->released. Releasing an
	// already-released delivery is a no-op success; any other status is a
	// conflict.
	ReleaseEscrow(ctx context.Context, deliveryID uuid.UUID, at time.Time) error
	// MarkPaid flips a non-escrow delivery to paid when the payment webhook
	// confirms a completed transaction. Escrowed/released rows are left alone.
	MarkPaid(ctx context.Context, deliveryID uuid.UUID, at time.Time) error
}

// TransactionRepository exposes payment transactions read-side for the
// entitlement gate and write-side for the webhook receiver.
type TransactionRepository interface {
	HasCompletedForDelivery(ctx context.Context, deliveryID uuid.UUID) (bool, error)
	// UpsertByProviderRef records a webhook delivery idempotently keyed on the
	// processor's reference, so redelivered webhooks do not duplicate rows.
	UpsertByProviderRef(ctx context.Context, txn domain.Transaction) error
}

// AuditLogRepository is append-only; entries are never mutated or deleted.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	FirstSeenAt    time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for domain events.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
