package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

// VerifyToken validates a bearer access token purely from its own content
// plus current time; no store lookup is involved, so it is safe on every
// request.
func (s *Service) VerifyToken(raw string) (ports.AccessClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(raw)
	if err != nil {
		return ports.AccessClaims{}, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyPassword compares the supplied password against the delivery's
// stored hash under the per-(delivery, address) lockout policy. On success
// the failure counter resets and a fresh access token is minted.
func (s *Service) VerifyPassword(ctx context.Context, delivery domain.Delivery, password, callerAddr string, userID *uuid.UUID, now time.Time) (string, error) {
	key := attemptKey(delivery.DeliveryID, callerAddr)

	state, err := s.attempts.Get(ctx, key)
	if err != nil {
		slog.Default().WarnContext(ctx, "attempt state unavailable",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "verify_password",
			"outcome", "degraded",
			"delivery_id", delivery.DeliveryID.String(),
			"error", err,
		)
	}
	if state.LockedUntil != nil && state.LockedUntil.After(now) {
		return "", domain.ErrTooManyAttempts
	}

	if err := s.hasher.Compare(delivery.PasswordHash, password); err != nil {
		state, recordErr := s.attempts.RecordFailure(ctx, key, now, s.cfg.FailedAttemptThreshold, s.cfg.AttemptCoolDown)
		if recordErr != nil {
			slog.Default().ErrorContext(ctx, "failed to update attempt state",
				"service", serviceName,
				"module", "application",
				"layer", "application",
				"operation", "verify_password",
				"outcome", "failure",
				"delivery_id", delivery.DeliveryID.String(),
				"error", recordErr,
			)
		}
		if state.LockedUntil != nil {
			slog.Default().WarnContext(ctx, "password attempt lockout triggered",
				"service", serviceName,
				"module", "application",
				"layer", "application",
				"operation", "verify_password",
				"outcome", "denied",
				"delivery_id", delivery.DeliveryID.String(),
				"failed_count", state.FailedCount,
			)
			return "", domain.ErrTooManyAttempts
		}
		remaining := s.cfg.FailedAttemptThreshold - state.FailedCount
		if remaining < 0 {
			remaining = 0
		}
		return "", &domain.PasswordDenial{RemainingAttempts: remaining}
	}

	_ = s.attempts.Clear(ctx, key)

	token, err := s.tokenSigner.Sign(ports.AccessClaims{
		DeliveryID: delivery.DeliveryID,
		UserID:     userID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// attemptKey scopes lockout state to one delivery and one caller address so
// a hostile caller cannot lock out everyone else.
func attemptKey(deliveryID uuid.UUID, callerAddr string) string {
	return "download:" + deliveryID.String() + ":" + callerAddr
}
