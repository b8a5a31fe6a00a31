package unit

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kazi-platform/delivery-access-service/internal/adapters/storage"
)

func TestURLSignerIssuesGatewayURL(t *testing.T) {
	t.Parallel()

	signer, err := storage.NewURLSigner("https://files.example.com/storage/v1/", "deliveries", "test-secret")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}

	signed, err := signer.SignDownloadURL(context.Background(), "projects/p1/final draft.zip", 30*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !strings.HasPrefix(signed.URL, "https://files.example.com/storage/v1/object/sign/deliveries/projects/p1/") {
		t.Fatalf("unexpected url shape: %s", signed.URL)
	}
	if strings.Contains(signed.URL, "final draft.zip") {
		t.Fatalf("path segments must be escaped: %s", signed.URL)
	}

	parsed, err := url.Parse(signed.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rawToken := parsed.Query().Get("token")
	if rawToken == "" {
		t.Fatalf("expected token query parameter")
	}

	// The gateway validates the token against the shared secret.
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})); err != nil {
		t.Fatalf("token must verify with signing secret: %v", err)
	}
	if claims["url"] != "deliveries/projects/p1/final draft.zip" {
		t.Fatalf("token must carry the object path, got %v", claims["url"])
	}

	remaining := time.Until(signed.ExpiresAt)
	if remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Fatalf("expected ~30m validity, got %s", remaining)
	}
}

func TestURLSignerRejectsEmptyStorageKey(t *testing.T) {
	t.Parallel()

	signer, err := storage.NewURLSigner("https://files.example.com", "deliveries", "test-secret")
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}
	if _, err := signer.SignDownloadURL(context.Background(), "", time.Hour); err == nil {
		t.Fatalf("expected error for empty storage key")
	}
}
