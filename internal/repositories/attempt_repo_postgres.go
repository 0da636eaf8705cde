package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/BradenHooton/admingate/internal/database"
	"github.com/BradenHooton/admingate/internal/models"
)

// PostgresAttemptRepository stores the attempt ledger in PostgreSQL so that
// several gateway processes share one view of failed logins
type PostgresAttemptRepository struct {
	db *database.DB
}

// NewPostgresAttemptRepository creates a new PostgresAttemptRepository
func NewPostgresAttemptRepository(db *database.DB) *PostgresAttemptRepository {
	return &PostgresAttemptRepository{db: db}
}

// Get returns the record for identity, or nil if there is none
func (r *PostgresAttemptRepository) Get(ctx context.Context, identity string) (*models.AttemptRecord, error) {
	query := `
		SELECT identity, failed_count, last_attempt_at FROM admin_login_attempts
		WHERE identity = $1
	`

	var rec models.AttemptRecord
	err := database.StoreError("get attempt",
		r.db.Pool.QueryRow(ctx, query, identity).Scan(&rec.Identity, &rec.FailedCount, &rec.LastAttemptAt))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// RecordFailure atomically increments the failure count, restarting at 1 when
// the previous attempt is older than windowStart
func (r *PostgresAttemptRepository) RecordFailure(ctx context.Context, identity string, now, windowStart time.Time) (*models.AttemptRecord, error) {
	query := `
		INSERT INTO admin_login_attempts (identity, failed_count, last_attempt_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (identity) DO UPDATE SET
			failed_count = CASE
				WHEN admin_login_attempts.last_attempt_at < $3 THEN 1
				ELSE admin_login_attempts.failed_count + 1
			END,
			last_attempt_at = EXCLUDED.last_attempt_at
		RETURNING identity, failed_count, last_attempt_at
	`

	var rec models.AttemptRecord
	err := r.db.Pool.QueryRow(ctx, query, identity, now, windowStart).Scan(&rec.Identity, &rec.FailedCount, &rec.LastAttemptAt)
	if err != nil {
		return nil, database.StoreError("record attempt", err)
	}

	return &rec, nil
}

// DeleteIfStale removes the record only if its last attempt is before windowStart
func (r *PostgresAttemptRepository) DeleteIfStale(ctx context.Context, identity string, windowStart time.Time) error {
	query := `DELETE FROM admin_login_attempts WHERE identity = $1 AND last_attempt_at < $2`
	_, err := r.db.Pool.Exec(ctx, query, identity, windowStart)
	return database.StoreError("expire attempt", err)
}

// Delete removes the record for identity unconditionally
func (r *PostgresAttemptRepository) Delete(ctx context.Context, identity string) error {
	query := `DELETE FROM admin_login_attempts WHERE identity = $1`
	_, err := r.db.Pool.Exec(ctx, query, identity)
	return database.StoreError("delete attempt", err)
}

// List returns all records ordered by identity
func (r *PostgresAttemptRepository) List(ctx context.Context) ([]models.AttemptRecord, error) {
	query := `
		SELECT identity, failed_count, last_attempt_at FROM admin_login_attempts
		ORDER BY identity
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, database.StoreError("list attempts", err)
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		if err := rows.Scan(&rec.Identity, &rec.FailedCount, &rec.LastAttemptAt); err != nil {
			return nil, database.StoreError("scan attempt", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PurgeOlderThan deletes every record whose last attempt is before cutoff
func (r *PostgresAttemptRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM admin_login_attempts WHERE last_attempt_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, database.StoreError("purge attempts", err)
	}

	return result.RowsAffected(), nil
}

// Ping checks database reachability
func (r *PostgresAttemptRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
