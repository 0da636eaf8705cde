package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/admingate/internal/metrics"
	"github.com/BradenHooton/admingate/internal/models"
	"github.com/filecoin-project/go-clock"
)

// AttemptStore persists per-identity failure records. RecordFailure and
// DeleteIfStale must be atomic with respect to concurrent callers.
type AttemptStore interface {
	Get(ctx context.Context, identity string) (*models.AttemptRecord, error)
	RecordFailure(ctx context.Context, identity string, now, windowStart time.Time) (*models.AttemptRecord, error)
	DeleteIfStale(ctx context.Context, identity string, windowStart time.Time) error
	Delete(ctx context.Context, identity string) error
	List(ctx context.Context) ([]models.AttemptRecord, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// AttemptLedgerConfig holds the blocking policy
type AttemptLedgerConfig struct {
	MaxFailedAttempts int
	Window            time.Duration
}

// FailureResult describes the ledger state right after a recorded failure
type FailureResult struct {
	Count       int
	Blocked     bool
	JustBlocked bool // this failure crossed the threshold
	Remaining   time.Duration
}

// AttemptLedger tracks failed admin logins per client identity and decides
// whether an identity is blocked. Store errors never reach the caller: the
// ledger logs them and treats the identity as not blocked.
type AttemptLedger struct {
	store   AttemptStore
	config  AttemptLedgerConfig
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAttemptLedger creates a new AttemptLedger
func NewAttemptLedger(store AttemptStore, config AttemptLedgerConfig, clk clock.Clock, logger *slog.Logger, m *metrics.Metrics) *AttemptLedger {
	if clk == nil {
		clk = clock.New()
	}
	return &AttemptLedger{
		store:   store,
		config:  config,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
}

// Window returns the sliding window length
func (l *AttemptLedger) Window() time.Duration {
	return l.config.Window
}

// IsBlocked reports whether identity may not attempt a login right now and,
// if so, how long until the window closes. An expired record is removed.
func (l *AttemptLedger) IsBlocked(ctx context.Context, identity string) (bool, time.Duration) {
	now := l.clock.Now()

	record, err := l.store.Get(ctx, identity)
	if err != nil {
		l.storeError("get", identity, err)
		return false, 0
	}
	if record == nil {
		return false, 0
	}

	if record.Expired(now, l.config.Window) {
		if err := l.store.DeleteIfStale(ctx, identity, now.Add(-l.config.Window)); err != nil {
			l.storeError("delete_stale", identity, err)
		}
		return false, 0
	}

	if record.FailedCount >= l.config.MaxFailedAttempts {
		return true, l.config.Window - now.Sub(record.LastAttemptAt)
	}

	return false, 0
}

// RecordFailure counts one failed attempt for identity, starting a fresh
// record when none exists or the previous window has expired
func (l *AttemptLedger) RecordFailure(ctx context.Context, identity string) FailureResult {
	now := l.clock.Now()

	record, err := l.store.RecordFailure(ctx, identity, now, now.Add(-l.config.Window))
	if err != nil {
		l.storeError("record_failure", identity, err)
		return FailureResult{}
	}

	result := FailureResult{
		Count:       record.FailedCount,
		Blocked:     record.FailedCount >= l.config.MaxFailedAttempts,
		JustBlocked: record.FailedCount == l.config.MaxFailedAttempts,
	}
	if result.Blocked {
		result.Remaining = l.config.Window - now.Sub(record.LastAttemptAt)
	}

	if result.JustBlocked {
		l.metrics.ObserveLockout()
		l.logger.Warn("identity blocked after repeated failed admin logins",
			slog.String("identity", identity),
			slog.Int("failed_attempts", record.FailedCount),
			slog.Duration("window", l.config.Window))
	}

	return result
}

// Reset forgets identity entirely
func (l *AttemptLedger) Reset(ctx context.Context, identity string) {
	if err := l.store.Delete(ctx, identity); err != nil {
		l.storeError("delete", identity, err)
	}
}

// Snapshot summarizes live ledger entries. Records whose window has elapsed
// are not counted.
func (l *AttemptLedger) Snapshot(ctx context.Context) models.LedgerSnapshot {
	now := l.clock.Now()
	snapshot := models.LedgerSnapshot{Blocked: []models.BlockedIdentity{}}

	records, err := l.store.List(ctx)
	if err != nil {
		l.storeError("list", "", err)
		return snapshot
	}

	for i := range records {
		record := &records[i]
		if record.Expired(now, l.config.Window) {
			continue
		}
		snapshot.Size++
		if record.FailedCount >= l.config.MaxFailedAttempts {
			snapshot.Blocked = append(snapshot.Blocked, models.BlockedIdentity{
				Identity:     record.Identity,
				FailedCount:  record.FailedCount,
				BlockedUntil: record.BlockedUntil(l.config.Window),
			})
		}
	}

	return snapshot
}

// PurgeStale removes records whose window has fully elapsed
func (l *AttemptLedger) PurgeStale(ctx context.Context) (int64, error) {
	return l.store.PurgeOlderThan(ctx, l.clock.Now().Add(-l.config.Window))
}

// Ping checks the backing store
func (l *AttemptLedger) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

func (l *AttemptLedger) storeError(op, identity string, err error) {
	l.metrics.ObserveStoreError(op)
	l.logger.Error("attempt ledger store error",
		slog.String("op", op),
		slog.String("identity", identity),
		slog.Any("error", err))
}
