package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

const serviceName = "delivery-access-service"

// appendAudit writes one audit row best-effort. Audit logging never blocks
// the caller: a failed insert is logged server-side and swallowed.
func (s *Service) appendAudit(ctx context.Context, entry domain.AuditEntry) {
	if err := s.auditLog.Insert(ctx, entry); err != nil {
		slog.Default().WarnContext(ctx, "failed to append audit entry",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "append_audit",
			"outcome", "failure",
			"delivery_id", entry.DeliveryID.String(),
			"action", entry.Action,
			"error", err,
		)
	}
}

// enqueueEvent stages a domain event on the outbox best-effort. Broker
// delivery happens asynchronously in the worker.
func (s *Service) enqueueEvent(ctx context.Context, eventType string, deliveryID uuid.UUID, payload map[string]any) {
	if !domain.IsCanonicalEmittedEvent(eventType) {
		slog.Default().WarnContext(ctx, "dropping non-canonical event",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "enqueue_event",
			"outcome", "skipped",
			"event_type", eventType,
		)
		return
	}
	payload["event_class"] = domain.CanonicalEventClass(eventType)
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{}`)
	}
	if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: deliveryID.String(),
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}); err != nil {
		slog.Default().WarnContext(ctx, "failed to enqueue outbox event",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"delivery_id", deliveryID.String(),
			"error", err,
		)
	}
}
