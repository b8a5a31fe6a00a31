package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

// URLSigner issues time-limited signed URLs for the storage gateway. The
// gateway validates an HS256 token carried as a query parameter, so issuance
// is a local signing operation with no round-trip to storage.
type URLSigner struct {
	baseURL       string
	bucket        string
	signingSecret []byte
}

// NewURLSigner builds a signer for one storage bucket behind the gateway
// base URL.
func NewURLSigner(baseURL, bucket, signingSecret string) (*URLSigner, error) {
	if baseURL == "" {
		return nil, errors.New("storage base url is required")
	}
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if signingSecret == "" {
		return nil, errors.New("storage signing secret is required")
	}
	return &URLSigner{
		baseURL:       strings.TrimRight(baseURL, "/"),
		bucket:        bucket,
		signingSecret: []byte(signingSecret),
	}, nil
}

type signedURLClaims struct {
	ObjectPath string `json:"url"`
	jwt.RegisteredClaims
}

func (s *URLSigner) SignDownloadURL(_ context.Context, storageKey string, validity time.Duration) (ports.SignedURL, error) {
	if storageKey == "" {
		return ports.SignedURL{}, errors.New("storage key is required")
	}
	if validity <= 0 {
		validity = time.Hour
	}

	now := time.Now().UTC()
	expiresAt := now.Add(validity)
	objectPath := s.bucket + "/" + strings.TrimLeft(storageKey, "/")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signedURLClaims{
		ObjectPath: objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.signingSecret)
	if err != nil {
		return ports.SignedURL{}, fmt.Errorf("sign storage token: %w", err)
	}

	return ports.SignedURL{
		URL:       fmt.Sprintf("%s/object/sign/%s?token=%s", s.baseURL, escapeObjectPath(objectPath), url.QueryEscape(signed)),
		ExpiresAt: expiresAt,
	}, nil
}

// escapeObjectPath escapes each segment while preserving the path structure
// the gateway routes on.
func escapeObjectPath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
