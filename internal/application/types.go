package application

import (
	"time"

	"github.com/google/uuid"
)

// Config carries the policy knobs the dispatcher and verifier enforce.
// Thresholds and windows are deployment policy, not code constants.
type Config struct {
	AccessTokenTTL         time.Duration
	SignedURLTTL           time.Duration
	FailedAttemptThreshold int
	AttemptCoolDown        time.Duration
}

// DownloadRequest is one attempt to retrieve a delivery. IP address and user
// agent are filled by the transport adapter, never trusted from the body.
type DownloadRequest struct {
	Password    string `json:"password"`
	AccessToken string `json:"access_token"`

	UserID    *uuid.UUID `json:"-"`
	IPAddress string     `json:"-"`
	UserAgent string     `json:"-"`
}

type DownloadResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in"`
	AccessToken string `json:"access_token,omitempty"`
}

// DeliveryStatusResponse is the pre-flight view the UI renders before the
// user attempts an actual download.
type DeliveryStatusResponse struct {
	DeliveryID       uuid.UUID  `json:"delivery_id"`
	FileName         string     `json:"file_name"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	RequiresPassword bool       `json:"requires_password"`
	RequiresPayment  bool       `json:"requires_payment"`
	PaymentAmount    *float64   `json:"payment_amount,omitempty"`
	EscrowEnabled    bool       `json:"escrow_enabled"`
	Status           string     `json:"status"`
	DownloadCount    int        `json:"download_count"`
	MaxDownloads     *int       `json:"max_downloads,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	IsExpired        bool       `json:"is_expired"`
	LimitReached     bool       `json:"limit_reached"`
	CanDownload      bool       `json:"can_download"`
}

// ReleaseEscrowRequest carries the seller's completion password.
type ReleaseEscrowRequest struct {
	Password string `json:"password"`

	UserID    *uuid.UUID `json:"-"`
	IPAddress string     `json:"-"`
	UserAgent string     `json:"-"`
}

type ReleaseEscrowResponse struct {
	DeliveryID uuid.UUID `json:"delivery_id"`
	Status     string    `json:"status"`
}

// PaymentWebhookRequest mirrors the payment processor's completion callback.
// ProviderRef keys idempotent replay of redelivered webhooks.
type PaymentWebhookRequest struct {
	DeliveryID  uuid.UUID `json:"delivery_id"`
	ProviderRef string    `json:"provider_ref"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
}

type PaymentWebhookResponse struct {
	DeliveryID     uuid.UUID `json:"delivery_id"`
	DeliveryStatus string    `json:"delivery_status"`
	Recorded       bool      `json:"recorded"`
}
