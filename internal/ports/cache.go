package ports

import (
	"context"
	"time"
)

// AttemptState is the current lockout envelope for one (delivery, caller
// address) pair. It is cache-backed so state survives restarts and is shared
// across server instances, not a process-local counter.
type AttemptState struct {
	FailedCount int
	LockedUntil *time.Time
}

// AttemptStore handles short-lived brute-force protection state for
// password-protected deliveries.
type AttemptStore interface {
	Get(ctx context.Context, key string) (AttemptState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, coolDown time.Duration) (AttemptState, error)
	Clear(ctx context.Context, key string) error
}
