package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/metrics"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/BradenHooton/admingate/pkg/logger"
)

// Block policies
const (
	// BlockPolicyStrict refuses every attempt from a blocked identity
	BlockPolicyStrict = "strict"
	// BlockPolicyLenient still accepts the correct secret from a blocked identity
	BlockPolicyLenient = "lenient"
)

const notifyTimeout = 10 * time.Second

const (
	auditActionLogin  = "admin_login"
	auditActionLogout = "admin_logout"
	auditActionReset  = "ledger_reset"
)

// LoginInput is one admin login attempt
type LoginInput struct {
	Password  string
	OTP       string
	Identity  string
	UserAgent string
}

// AdminAuthConfig holds login orchestration settings
type AdminAuthConfig struct {
	BlockPolicy string
}

// AdminAuthService runs the admin login flow: ledger check, credential check,
// session issuance
type AdminAuthService struct {
	ledger      *AttemptLedger
	credentials *CredentialVerifier
	sessions    *SessionService
	notifier    LockoutNotifier
	timing      *auth.TimingDelay
	audit       *logger.AuditLogger
	config      AdminAuthConfig
	logger      *slog.Logger
	metrics     *metrics.Metrics

	notifications sync.WaitGroup
}

// NewAdminAuthService creates a new AdminAuthService. notifier and timing may be nil.
func NewAdminAuthService(
	ledger *AttemptLedger,
	credentials *CredentialVerifier,
	sessions *SessionService,
	notifier LockoutNotifier,
	timing *auth.TimingDelay,
	audit *logger.AuditLogger,
	config AdminAuthConfig,
	log *slog.Logger,
	m *metrics.Metrics,
) *AdminAuthService {
	if config.BlockPolicy == "" {
		config.BlockPolicy = BlockPolicyStrict
	}
	return &AdminAuthService{
		ledger:      ledger,
		credentials: credentials,
		sessions:    sessions,
		notifier:    notifier,
		timing:      timing,
		audit:       audit,
		config:      config,
		logger:      log,
		metrics:     m,
	}
}

// Login authenticates one attempt. It returns *models.RateLimitedError for a
// blocked identity and models.ErrInvalidCredentials for a wrong secret or code.
// The failure that reaches the threshold is still reported as invalid; only
// later attempts see the block.
func (s *AdminAuthService) Login(ctx context.Context, in LoginInput) (*IssuedSession, error) {
	start := time.Now()

	blocked, remaining := s.ledger.IsBlocked(ctx, in.Identity)
	if blocked && s.config.BlockPolicy != BlockPolicyLenient {
		s.rejectBlocked(ctx, in, remaining)
		return nil, &models.RateLimitedError{RetryAfter: remaining}
	}

	// The second factor is only checked behind a correct secret so that
	// guessing the secret never consumes a valid code
	if s.credentials.Verify(in.Password) && s.credentials.VerifyOTP(in.OTP) {
		session, err := s.sessions.Issue(ctx, in.Identity)
		if err != nil {
			s.logger.Error("failed to issue admin session", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %v", models.ErrInternalServer, err)
		}

		s.metrics.ObserveLogin(metrics.LoginSuccess)
		s.audit.Log(ctx, logger.AuditEvent{
			Action:    auditActionLogin,
			Identity:  in.Identity,
			UserAgent: in.UserAgent,
			Attrs:     []slog.Attr{slog.Bool("was_blocked", blocked)},
		})
		s.timing.WaitFrom(start, true)
		return session, nil
	}

	failure := s.ledger.RecordFailure(ctx, in.Identity)
	if failure.JustBlocked {
		s.notifyLockout(in.Identity, failure)
	}

	s.timing.WaitFrom(start, false)

	if blocked {
		retryAfter := failure.Remaining
		if !failure.Blocked {
			retryAfter = remaining
		}
		s.rejectBlocked(ctx, in, retryAfter)
		return nil, &models.RateLimitedError{RetryAfter: retryAfter}
	}

	s.metrics.ObserveLogin(metrics.LoginInvalid)
	s.audit.Log(ctx, logger.AuditEvent{
		Action:    auditActionLogin,
		Outcome:   logger.OutcomeFailure,
		Identity:  in.Identity,
		UserAgent: in.UserAgent,
		Reason:    "invalid_credentials",
		Attrs:     []slog.Attr{slog.Int("failed_attempts", failure.Count)},
	})
	return nil, models.ErrInvalidCredentials
}

// LoginStatus reports whether identity is currently blocked
func (s *AdminAuthService) LoginStatus(ctx context.Context, identity string) (bool, time.Duration) {
	return s.ledger.IsBlocked(ctx, identity)
}

// ResetIdentity clears the ledger entry for identity
func (s *AdminAuthService) ResetIdentity(ctx context.Context, identity string) {
	s.ledger.Reset(ctx, identity)
	s.audit.Log(ctx, logger.AuditEvent{Action: auditActionReset, Identity: identity})
}

// Logout revokes the session behind token. It never fails the request: a
// revocation store error is logged and the cookie is still cleared.
func (s *AdminAuthService) Logout(ctx context.Context, token, identity string) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Error("failed to record session revocation", slog.Any("error", err))
	}
	s.audit.Log(ctx, logger.AuditEvent{Action: auditActionLogout, Identity: identity})
}

// WaitForNotifications blocks until in-flight lockout alerts are done
func (s *AdminAuthService) WaitForNotifications() {
	s.notifications.Wait()
}

func (s *AdminAuthService) rejectBlocked(ctx context.Context, in LoginInput, retryAfter time.Duration) {
	s.metrics.ObserveLogin(metrics.LoginBlocked)
	s.audit.Log(ctx, logger.AuditEvent{
		Action:    auditActionLogin,
		Outcome:   logger.OutcomeBlocked,
		Identity:  in.Identity,
		UserAgent: in.UserAgent,
		Attrs:     []slog.Attr{slog.Duration("retry_after", retryAfter)},
	})
}

func (s *AdminAuthService) notifyLockout(identity string, failure FailureResult) {
	if s.notifier == nil {
		return
	}

	blockedUntil := s.ledger.clock.Now().Add(failure.Remaining)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyLockout(ctx, identity, failure.Count, blockedUntil); err != nil {
			s.logger.Error("failed to send lockout alert",
				slog.String("identity", identity),
				slog.Any("error", err))
		}
	}()
}
