package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/admingate/internal/database"
)

type PostgresRevocationRepository struct {
	db *database.DB
}

func NewPostgresRevocationRepository(db *database.DB) *PostgresRevocationRepository {
	return &PostgresRevocationRepository{db: db}
}

// RevokeSession adds a session ID to the revocation list
func (r *PostgresRevocationRepository) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	query := `
		INSERT INTO admin_session_revocations (session_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query, sessionID, expiresAt)
	return database.StoreError("revoke session", err)
}

// IsSessionRevoked checks if a session ID is in the revocation list
func (r *PostgresRevocationRepository) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM admin_session_revocations WHERE session_id = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, database.StoreError("check revocation", err)
	}

	return exists, nil
}

// PurgeExpired removes revocations whose credential has expired (call periodically)
func (r *PostgresRevocationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM admin_session_revocations WHERE expires_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, now)
	if err != nil {
		return 0, database.StoreError("purge revocations", err)
	}

	return result.RowsAffected(), nil
}
