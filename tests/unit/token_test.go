package unit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/adapters/security"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

func TestJWTSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := security.NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()
	claims := ports.AccessClaims{
		DeliveryID: uuid.New(),
		UserID:     &userID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(time.Hour),
	}

	token, err := signer.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parsed, err := signer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.DeliveryID != claims.DeliveryID {
		t.Fatalf("delivery id mismatch: %s != %s", parsed.DeliveryID, claims.DeliveryID)
	}
	if parsed.UserID == nil || *parsed.UserID != userID {
		t.Fatalf("user id mismatch: %v", parsed.UserID)
	}
	if !parsed.ExpiresAt.Equal(claims.ExpiresAt) {
		t.Fatalf("expiry mismatch: %s != %s", parsed.ExpiresAt, claims.ExpiresAt)
	}
}

func TestJWTSignerRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := security.NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}

	now := time.Now().UTC()
	token, err := signer.Sign(ports.AccessClaims{
		DeliveryID: uuid.New(),
		IssuedAt:   now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.ParseAndValidate(token); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}

func TestJWTSignerRejectsForeignAndGarbageTokens(t *testing.T) {
	t.Parallel()

	signer, err := security.NewEphemeralJWTSigner("test-key-1")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	other, err := security.NewEphemeralJWTSigner("test-key-2")
	if err != nil {
		t.Fatalf("create other signer: %v", err)
	}

	now := time.Now().UTC()
	token, err := other.Sign(ports.AccessClaims{
		DeliveryID: uuid.New(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := signer.ParseAndValidate(token); err == nil {
		t.Fatalf("expected rejection of token signed by another key")
	}
	if _, err := signer.ParseAndValidate("not-a-jwt"); err == nil {
		t.Fatalf("expected rejection of garbage token")
	}
}
