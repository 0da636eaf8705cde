package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/metrics"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/filecoin-project/go-clock"
)

// RevocationStore remembers logged-out sessions until they would have expired
type RevocationStore interface {
	RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionConfig holds session verification policy
type SessionConfig struct {
	Production bool
	// StrictFingerprint rejects a session presented from a different client
	// identity than the one it was issued to. Otherwise the mismatch is logged.
	StrictFingerprint bool
}

// IssuedSession is a freshly minted credential and its encoded form
type IssuedSession struct {
	Token      string
	Credential *models.SessionCredential
	ExpiresAt  time.Time
}

// automatedClientMarkers are lower-case user-agent fragments of scripted clients
var automatedClientMarkers = []string{
	"bot", "crawler", "spider",
	"curl", "wget", "httpie",
	"python", "java", "go-http-client", "libwww", "perl", "php", "ruby",
	"node-fetch", "axios", "headless",
}

// SessionService issues, verifies and revokes admin sessions
type SessionService struct {
	tokens      *auth.SessionTokenManager
	ledger      *AttemptLedger
	revocations RevocationStore
	config      SessionConfig
	clock       clock.Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewSessionService creates a new SessionService. revocations may be nil.
func NewSessionService(
	tokens *auth.SessionTokenManager,
	ledger *AttemptLedger,
	revocations RevocationStore,
	config SessionConfig,
	clk clock.Clock,
	logger *slog.Logger,
	m *metrics.Metrics,
) *SessionService {
	if clk == nil {
		clk = clock.New()
	}
	return &SessionService{
		tokens:      tokens,
		ledger:      ledger,
		revocations: revocations,
		config:      config,
		clock:       clk,
		logger:      logger,
		metrics:     m,
	}
}

// Lifetime returns how long an issued session stays valid
func (s *SessionService) Lifetime() time.Duration {
	return s.tokens.Lifetime()
}

// Issue mints a session for identity and clears its failure history
func (s *SessionService) Issue(ctx context.Context, identity string) (*IssuedSession, error) {
	token, cred, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.ledger.Reset(ctx, identity)

	return &IssuedSession{
		Token:      token,
		Credential: cred,
		ExpiresAt:  s.tokens.ExpiresAt(cred),
	}, nil
}

// Verify classifies the credential on a request. Checks run in order and stop
// at the first failure. The attempt ledger is never consulted or modified.
func (s *SessionService) Verify(ctx context.Context, meta models.RequestMeta) models.VerificationResult {
	result := s.verify(ctx, meta)
	s.metrics.ObserveVerification(string(result.Outcome), reasonLabel(result.Reason))
	return result
}

func (s *SessionService) verify(ctx context.Context, meta models.RequestMeta) models.VerificationResult {
	if meta.Credential == "" {
		return unauthenticated(models.ErrNoCredential)
	}

	cred, err := s.tokens.Parse(meta.Credential)
	if err != nil {
		s.logger.Warn("rejected malformed admin session",
			slog.String("identity", meta.Identity),
			slog.Any("error", err))
		return unauthenticated(err)
	}

	if err := s.tokens.CheckExpiry(cred, s.clock.Now()); err != nil {
		return unauthenticated(err)
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsSessionRevoked(ctx, cred.SessionID)
		if err != nil {
			// Fail open: the signature and expiry checks above still hold
			s.metrics.ObserveStoreError("is_revoked")
			s.logger.Error("failed to check session revocation", slog.Any("error", err))
		} else if revoked {
			return unauthenticated(models.ErrSessionRevoked)
		}
	}

	if cred.ClientIdentity != meta.Identity {
		s.logger.Warn("admin session presented from a different client",
			slog.String("issued_to", cred.ClientIdentity),
			slog.String("presented_by", meta.Identity),
			slog.Bool("strict", s.config.StrictFingerprint))
		if s.config.StrictFingerprint {
			return unauthenticated(models.ErrFingerprintMismatch)
		}
	}

	if isAutomatedClient(meta.UserAgent) {
		s.logger.Warn("admin session used by automated client",
			slog.String("identity", meta.Identity),
			slog.String("user_agent", meta.UserAgent))
		return suspicious(fmt.Errorf("%w: user agent", models.ErrSuspiciousRequest))
	}

	if s.config.Production && meta.Origin != "" && !originMatchesHost(meta.Origin, meta.Host) {
		s.logger.Warn("admin session used cross-origin",
			slog.String("identity", meta.Identity),
			slog.String("origin", meta.Origin),
			slog.String("host", meta.Host))
		return suspicious(fmt.Errorf("%w: origin", models.ErrSuspiciousRequest))
	}

	return models.VerificationResult{
		Outcome:    models.OutcomeAuthenticated,
		Credential: cred,
	}
}

// IsLive re-runs the expiry check for an already verified credential
func (s *SessionService) IsLive(cred *models.SessionCredential) bool {
	return cred != nil && cred.Authenticated && s.tokens.CheckExpiry(cred, s.clock.Now()) == nil
}

// ExpiresAt returns when cred stops being accepted
func (s *SessionService) ExpiresAt(cred *models.SessionCredential) time.Time {
	return s.tokens.ExpiresAt(cred)
}

// Revoke invalidates the session behind token for the rest of its lifetime.
// Tokens that do not parse have nothing to revoke and are ignored.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" || s.revocations == nil {
		return nil
	}

	cred, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	expiresAt := s.tokens.ExpiresAt(cred)
	if !expiresAt.After(s.clock.Now()) {
		return nil
	}

	if err := s.revocations.RevokeSession(ctx, cred.SessionID, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// PurgeExpiredRevocations drops revocation entries for sessions that have expired anyway
func (s *SessionService) PurgeExpiredRevocations(ctx context.Context) (int64, error) {
	if s.revocations == nil {
		return 0, nil
	}
	return s.revocations.PurgeExpired(ctx, s.clock.Now())
}

func unauthenticated(reason error) models.VerificationResult {
	return models.VerificationResult{Outcome: models.OutcomeUnauthenticated, Reason: reason}
}

func suspicious(reason error) models.VerificationResult {
	return models.VerificationResult{Outcome: models.OutcomeSuspicious, Reason: reason}
}

func isAutomatedClient(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, marker := range automatedClientMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// originMatchesHost compares the Origin header's host[:port] with the request Host
func originMatchesHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// reasonLabel maps a verification reason to a bounded metrics label
func reasonLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, models.ErrNoCredential):
		return "no_credential"
	case errors.Is(err, models.ErrMalformedCredential):
		return "malformed"
	case errors.Is(err, models.ErrExpiredCredential):
		return "expired"
	case errors.Is(err, models.ErrSessionRevoked):
		return "revoked"
	case errors.Is(err, models.ErrFingerprintMismatch):
		return "fingerprint"
	case errors.Is(err, models.ErrSuspiciousRequest):
		return "suspicious"
	default:
		return "other"
	}
}
