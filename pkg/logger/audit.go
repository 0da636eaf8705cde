package logger

import (
	"context"
	"log/slog"
)

// Audit outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBlocked = "blocked"
)

// AuditEvent is one security-relevant gateway action
type AuditEvent struct {
	Action    string // admin_login, admin_logout, ledger_reset
	Outcome   string
	Identity  string
	UserAgent string
	Reason    string
	Attrs     []slog.Attr
}

// AuditLogger writes AuditEvents to a dedicated "audit" record stream.
// Client identities are masked and user agents dropped in production.
type AuditLogger struct {
	logger     *slog.Logger
	production bool
}

// NewAuditLogger creates an AuditLogger for env
func NewAuditLogger(logger *slog.Logger, env string) *AuditLogger {
	return &AuditLogger{
		logger:     logger.With(slog.String("log_type", "audit")),
		production: env == "production",
	}
}

// Log records event. Failures and blocks are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if al == nil {
		return
	}

	outcome := event.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}

	attrs := make([]slog.Attr, 0, 5+len(event.Attrs))
	attrs = append(attrs,
		slog.String("action", event.Action),
		slog.String("outcome", outcome),
	)
	if event.Identity != "" {
		identity := event.Identity
		if al.production {
			identity = MaskIdentity(identity)
		}
		attrs = append(attrs, slog.String("identity", identity))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, RedactedAttr("user_agent", event.UserAgent, al.production))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	attrs = append(attrs, event.Attrs...)

	level := slog.LevelInfo
	if outcome != OutcomeSuccess {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}
