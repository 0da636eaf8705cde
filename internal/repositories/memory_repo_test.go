package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoEpoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestMemoryAttemptRepository_RecordFailure_Increments(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()
	windowStart := repoEpoch.Add(-15 * time.Minute)

	for i := 1; i <= 3; i++ {
		rec, err := repo.RecordFailure(ctx, "203.0.113.7", repoEpoch.Add(time.Duration(i)*time.Second), windowStart)
		require.NoError(t, err)
		assert.Equal(t, i, rec.FailedCount)
	}

	rec, err := repo.Get(ctx, "203.0.113.7")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.FailedCount)
	assert.Equal(t, repoEpoch.Add(3*time.Second), rec.LastAttemptAt)
}

func TestMemoryAttemptRepository_RecordFailure_StaleRecordRestarts(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()

	_, err := repo.RecordFailure(ctx, "a", repoEpoch, repoEpoch.Add(-time.Minute))
	require.NoError(t, err)
	_, err = repo.RecordFailure(ctx, "a", repoEpoch, repoEpoch.Add(-time.Minute))
	require.NoError(t, err)

	later := repoEpoch.Add(20 * time.Minute)
	rec, err := repo.RecordFailure(ctx, "a", later, later.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.FailedCount)
}

func TestMemoryAttemptRepository_GetMissing(t *testing.T) {
	repo := NewMemoryAttemptRepository()

	rec, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryAttemptRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()
	_, err := repo.RecordFailure(ctx, "a", repoEpoch, repoEpoch.Add(-time.Minute))
	require.NoError(t, err)

	rec, _ := repo.Get(ctx, "a")
	rec.FailedCount = 99

	again, _ := repo.Get(ctx, "a")
	assert.Equal(t, 1, again.FailedCount)
}

func TestMemoryAttemptRepository_DeleteIfStale(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()
	_, err := repo.RecordFailure(ctx, "a", repoEpoch, repoEpoch.Add(-time.Minute))
	require.NoError(t, err)

	// Still inside the window
	require.NoError(t, repo.DeleteIfStale(ctx, "a", repoEpoch.Add(-time.Second)))
	rec, _ := repo.Get(ctx, "a")
	assert.NotNil(t, rec)

	require.NoError(t, repo.DeleteIfStale(ctx, "a", repoEpoch.Add(time.Second)))
	rec, _ = repo.Get(ctx, "a")
	assert.Nil(t, rec)
}

func TestMemoryAttemptRepository_DeleteAndList(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.RecordFailure(ctx, id, repoEpoch, repoEpoch.Add(-time.Minute))
		require.NoError(t, err)
	}
	require.NoError(t, repo.Delete(ctx, "b"))

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Identity)
	assert.Equal(t, "c", records[1].Identity)
}

func TestMemoryAttemptRepository_PurgeOlderThan(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()
	_, _ = repo.RecordFailure(ctx, "old", repoEpoch.Add(-time.Hour), repoEpoch.Add(-2*time.Hour))
	_, _ = repo.RecordFailure(ctx, "new", repoEpoch, repoEpoch.Add(-time.Hour))

	purged, err := repo.PurgeOlderThan(ctx, repoEpoch.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	records, _ := repo.List(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].Identity)
}

func TestMemoryAttemptRepository_ConcurrentFailuresNotLost(t *testing.T) {
	repo := NewMemoryAttemptRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.RecordFailure(ctx, "shared", repoEpoch, repoEpoch.Add(-time.Minute))
		}()
	}
	wg.Wait()

	rec, _ := repo.Get(ctx, "shared")
	assert.Equal(t, 50, rec.FailedCount)
}

func TestMemoryRevocationRepository(t *testing.T) {
	repo := NewMemoryRevocationRepository()
	ctx := context.Background()
	expiresAt := repoEpoch.Add(time.Hour)

	revoked, err := repo.IsSessionRevoked(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.RevokeSession(ctx, "sid-1", expiresAt))
	revoked, err = repo.IsSessionRevoked(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Kept through the last accepted instant
	purged, err := repo.PurgeExpired(ctx, expiresAt)
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = repo.PurgeExpired(ctx, expiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	revoked, _ = repo.IsSessionRevoked(ctx, "sid-1")
	assert.False(t, revoked)
}
