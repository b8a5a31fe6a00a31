package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

// Service is the delivery dispatcher: it orchestrates a download request
// end-to-end, enforcing every precondition in a fixed order before touching
// object storage or the download counter.
type Service struct {
	cfg          Config
	deliveries   ports.DeliveryRepository
	transactions ports.TransactionRepository
	auditLog     ports.AuditLogRepository
	outbox       ports.OutboxRepository
	attempts     ports.AttemptStore
	hasher       ports.PasswordHasher
	tokenSigner  ports.TokenSigner
	urlSigner    ports.ObjectURLSigner
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Deliveries   ports.DeliveryRepository
	Transactions ports.TransactionRepository
	AuditLog     ports.AuditLogRepository
	Outbox       ports.OutboxRepository
	Attempts     ports.AttemptStore
	Hasher       ports.PasswordHasher
	TokenSigner  ports.TokenSigner
	URLSigner    ports.ObjectURLSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:          deps.Config,
		deliveries:   deps.Deliveries,
		transactions: deps.Transactions,
		auditLog:     deps.AuditLog,
		outbox:       deps.Outbox,
		attempts:     deps.Attempts,
		hasher:       deps.Hasher,
		tokenSigner:  deps.TokenSigner,
		urlSigner:    deps.URLSigner,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// RequestDownload runs the ordered precondition pipeline for one download
// attempt. Apart from the lazy expiry transition, nothing is persisted until
// every gate has passed.
func (s *Service) RequestDownload(ctx context.Context, deliveryID uuid.UUID, req DownloadRequest) (DownloadResponse, error) {
	now := s.nowFn()

	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return DownloadResponse{}, err
	}

	if err := s.checkExpiry(ctx, delivery, now); err != nil {
		return DownloadResponse{}, err
	}

	if delivery.LimitReached() {
		return DownloadResponse{}, domain.ErrLimitReached
	}

	mintedToken, userID, err := s.verifyAccess(ctx, delivery, req, now)
	if err != nil {
		return DownloadResponse{}, err
	}

	if err := s.checkEntitlement(ctx, delivery); err != nil {
		return DownloadResponse{}, err
	}

	signed, err := s.urlSigner.SignDownloadURL(ctx, delivery.StorageKey, s.cfg.SignedURLTTL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return DownloadResponse{}, fmt.Errorf("%w: sign download url", domain.ErrTemporaryFailure)
		}
		return DownloadResponse{}, fmt.Errorf("sign download url: %w", err)
	}

	count, err := s.deliveries.RecordDownload(ctx, delivery.DeliveryID, now)
	if err != nil {
		return DownloadResponse{}, fmt.Errorf("record download: %w", err)
	}

	s.appendAudit(ctx, domain.AuditEntry{
		DeliveryID:    delivery.DeliveryID,
		UserID:        userID,
		Action:        domain.AuditActionDownloaded,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
		DownloadCount: count,
		OccurredAt:    now,
	})
	s.enqueueEvent(ctx, domain.EventDownloadCompleted, delivery.DeliveryID, map[string]any{
		"delivery_id":    delivery.DeliveryID.String(),
		"download_count": count,
		"downloaded_at":  now,
	})

	return DownloadResponse{
		Success:     true,
		DownloadURL: signed.URL,
		ExpiresIn:   int64(s.cfg.SignedURLTTL.Seconds()),
		AccessToken: mintedToken,
	}, nil
}

// checkExpiry applies the lazy active->expired transition. The status write
// happens at most once; requests arriving after the row is already expired
// fail without another write.
func (s *Service) checkExpiry(ctx context.Context, delivery domain.Delivery, now time.Time) error {
	if delivery.Status == domain.StatusExpired {
		return domain.ErrExpired
	}
	if delivery.ExpiresAt == nil || !delivery.ExpiresAt.Before(now) {
		return nil
	}
	if err := s.deliveries.MarkExpired(ctx, delivery.DeliveryID, now); err != nil {
		return fmt.Errorf("mark expired: %w", err)
	}
	s.enqueueEvent(ctx, domain.EventDeliveryExpired, delivery.DeliveryID, map[string]any{
		"delivery_id": delivery.DeliveryID.String(),
		"expired_at":  now,
	})
	return domain.ErrExpired
}

// verifyAccess enforces the credential gate for password-protected
// deliveries. A raw-password success mints a fresh token so the caller need
// not re-supply the password on the next call; token-based access mints
// nothing.
func (s *Service) verifyAccess(ctx context.Context, delivery domain.Delivery, req DownloadRequest, now time.Time) (string, *uuid.UUID, error) {
	if !delivery.RequiresPassword() {
		return "", req.UserID, nil
	}

	if req.AccessToken != "" {
		claims, err := s.VerifyToken(req.AccessToken)
		if err != nil {
			return "", nil, err
		}
		if claims.DeliveryID != delivery.DeliveryID {
			return "", nil, domain.ErrInvalidToken
		}
		return "", claims.UserID, nil
	}

	if req.Password == "" {
		return "", nil, domain.ErrPasswordRequired
	}

	token, err := s.VerifyPassword(ctx, delivery, req.Password, req.IPAddress, req.UserID, now)
	if err != nil {
		return "", nil, err
	}
	return token, req.UserID, nil
}
