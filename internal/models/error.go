package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// ErrStoreUnavailable marks ledger or revocation store outages
	ErrStoreUnavailable = errors.New("store unavailable")

	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many failed login attempts")

	// Session errors. Malformed, expired and revoked all surface as
	// unauthenticated; only the logs tell them apart.
	ErrNoCredential        = errors.New("no session credential")
	ErrMalformedCredential = errors.New("malformed session credential")
	ErrExpiredCredential   = errors.New("session credential expired")
	ErrSessionRevoked      = errors.New("session has been revoked")
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
	ErrSuspiciousRequest   = errors.New("suspicious request")
)

// RateLimitedError carries the informational retry hint for a blocked identity
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
