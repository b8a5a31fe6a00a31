package ports

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHasher abstracts hash comparison so application code stays
// crypto-library agnostic.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AccessClaims is the payload of a short-lived delivery access token. The
// token substitutes for re-entering the password on subsequent requests and
// is verified purely from its own content plus current time.
type AccessClaims struct {
	DeliveryID uuid.UUID
	UserID     *uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenSigner mints and validates delivery access tokens.
type TokenSigner interface {
	Sign(claims AccessClaims) (string, error)
	ParseAndValidate(raw string) (AccessClaims, error)
}
