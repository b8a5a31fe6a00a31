package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested delivery does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("delivery not found")
	// ErrExpired marks the terminal expiry state. Once a delivery is expired
	// every subsequent request keeps failing the same way.
	ErrExpired = errors.New("delivery expired")
	// ErrLimitReached signals the download cap is consumed. Unlike expiry this
	// check never mutates the delivery row.
	ErrLimitReached = errors.New("download limit reached")
	// ErrPasswordRequired is returned when a protected delivery is requested
	// with no credential at all. Distinct from a wrong password so the UI can
	// render the password prompt instead of an error.
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	// ErrTooManyAttempts signals lockout after repeated failures from the same
	// caller address; attempts fail regardless of correctness until the
	// cool-down elapses.
	ErrTooManyAttempts = errors.New("too many password attempts")
	ErrInvalidToken    = errors.New("invalid or expired access token")
	// ErrPaymentRequired is an expected, frequent outcome rather than an error
	// condition; denials carry the amount and current status for the caller.
	ErrPaymentRequired = errors.New("payment required")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	// ErrTemporaryFailure covers timeouts and unreachable collaborators where
	// no partial mutation happened and the caller may retry.
	ErrTemporaryFailure = errors.New("temporary failure")
)

// PasswordDenial decorates ErrInvalidPassword with the remaining attempt
// budget for the caller address.
type PasswordDenial struct {
	RemainingAttempts int
}

func (e *PasswordDenial) Error() string {
	return fmt.Sprintf("invalid password (%d attempts remaining)", e.RemainingAttempts)
}

func (e *PasswordDenial) Unwrap() error { return ErrInvalidPassword }

// PaymentDenial decorates ErrPaymentRequired with the required amount and the
// delivery's current payment status string.
type PaymentDenial struct {
	Amount float64
	Status string
}

func (e *PaymentDenial) Error() string {
	return fmt.Sprintf("payment required (status %s)", e.Status)
}

func (e *PaymentDenial) Unwrap() error { return ErrPaymentRequired }
