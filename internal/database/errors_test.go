package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/admingate/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, StoreError("get", nil))
	})

	t.Run("no rows", func(t *testing.T) {
		assert.ErrorIs(t, StoreError("get", pgx.ErrNoRows), models.ErrNotFound)
	})

	t.Run("timeout", func(t *testing.T) {
		err := StoreError("record", fmt.Errorf("query: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "record")
	})

	t.Run("postgres error keeps code", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23514", Message: "check violation"}
		err := StoreError("record", pgErr)

		var got *pgconn.PgError
		assert.True(t, errors.As(err, &got))
		assert.Contains(t, err.Error(), "postgres 23514")
		assert.NotErrorIs(t, err, models.ErrStoreUnavailable)
	})

	t.Run("other", func(t *testing.T) {
		base := errors.New("boom")
		err := StoreError("list", base)
		assert.ErrorIs(t, err, base)
		assert.Equal(t, "list: boom", err.Error())
	})
}
