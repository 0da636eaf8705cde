package services

import (
	"context"

	"github.com/BradenHooton/admingate/internal/models"
	"github.com/filecoin-project/go-clock"
)

// StatusService reports ledger and session state. It never changes either.
type StatusService struct {
	ledger        *AttemptLedger
	sessions      *SessionService
	ledgerBackend string
	clock         clock.Clock
}

// NewStatusService creates a new StatusService
func NewStatusService(ledger *AttemptLedger, sessions *SessionService, ledgerBackend string, clk clock.Clock) *StatusService {
	if clk == nil {
		clk = clock.New()
	}
	return &StatusService{
		ledger:        ledger,
		sessions:      sessions,
		ledgerBackend: ledgerBackend,
		clock:         clk,
	}
}

// Report builds a StatusReport for the caller holding cred, which may be nil
func (s *StatusService) Report(ctx context.Context, cred *models.SessionCredential) models.StatusReport {
	snapshot := s.ledger.Snapshot(ctx)

	report := models.StatusReport{
		LedgerBackend:     s.ledgerBackend,
		LedgerSize:        snapshot.Size,
		BlockedIdentities: snapshot.Blocked,
		GeneratedAt:       s.clock.Now().UTC(),
	}

	if s.sessions.IsLive(cred) {
		lastLogin := cred.IssuedAt.UTC()
		expiresAt := s.sessions.ExpiresAt(cred).UTC()
		report.SessionValid = true
		report.LastLogin = &lastLogin
		report.SessionExpiresAt = &expiresAt
	}

	return report
}
