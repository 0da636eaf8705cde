package models

import "time"

// AttemptRecord tracks failed admin login attempts for one client identity.
// A record only exists while at least one failure is inside the window.
type AttemptRecord struct {
	Identity      string    `db:"identity" json:"identity"`
	FailedCount   int       `db:"failed_count" json:"failedCount"`
	LastAttemptAt time.Time `db:"last_attempt_at" json:"lastAttemptAt"`
}

// Expired reports whether the sliding window measured from the last attempt has
// fully elapsed at now.
func (r *AttemptRecord) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(r.LastAttemptAt) > window
}

// BlockedUntil is derived: the moment the window closes behind the last attempt.
func (r *AttemptRecord) BlockedUntil(window time.Duration) time.Time {
	return r.LastAttemptAt.Add(window)
}

// BlockedIdentity is a read-only view of a blocked ledger entry
type BlockedIdentity struct {
	Identity     string    `json:"identity"`
	FailedCount  int       `json:"failedCount"`
	BlockedUntil time.Time `json:"blockedUntil"`
}

// LedgerSnapshot aggregates ledger state for telemetry
type LedgerSnapshot struct {
	Size    int               `json:"size"`
	Blocked []BlockedIdentity `json:"blocked"`
}
