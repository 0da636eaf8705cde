package models

import "time"

// StatusReport is the read-only security telemetry served to authenticated admins
type StatusReport struct {
	LedgerBackend     string            `json:"ledgerBackend"`
	LedgerSize        int               `json:"ledgerSize"`
	BlockedIdentities []BlockedIdentity `json:"blockedIdentities"`
	SessionValid      bool              `json:"sessionValid"`
	LastLogin         *time.Time        `json:"lastLogin,omitempty"`
	SessionExpiresAt  *time.Time        `json:"sessionExpiresAt,omitempty"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}
