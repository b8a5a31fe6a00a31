package ports

import (
	"context"
	"time"
)

// SignedURL is a time-limited retrieval URL issued for an object-storage key.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// ObjectURLSigner issues signed URLs granting direct retrieval from object
// storage without further authorization checks.
type ObjectURLSigner interface {
	SignDownloadURL(ctx context.Context, storageKey string, validity time.Duration) (SignedURL, error)
}
