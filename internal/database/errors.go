package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/admingate/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// StoreError annotates a pgx error with the store operation that produced it.
// Missing rows become models.ErrNotFound; connection failures and timeouts
// wrap models.ErrStoreUnavailable.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: postgres %s: %w", op, pgErr.Code, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
