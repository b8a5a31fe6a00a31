package ports

import "context"

// EventPublisher delivers outbox records to the broker. Kept minimal so the
// worker can swap Kafka for a logging publisher in local runs.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
