package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BradenHooton/admingate/internal/models"
)

// MemoryAttemptRepository keeps the attempt ledger in process memory.
// Every read-modify-write happens under one mutex, so concurrent failures for
// the same identity are never lost. State is not shared across processes.
type MemoryAttemptRepository struct {
	mu      sync.Mutex
	records map[string]*models.AttemptRecord
}

// NewMemoryAttemptRepository creates an empty in-memory ledger store
func NewMemoryAttemptRepository() *MemoryAttemptRepository {
	return &MemoryAttemptRepository{
		records: make(map[string]*models.AttemptRecord),
	}
}

// Get returns a copy of the record for identity, or nil if there is none
func (r *MemoryAttemptRepository) Get(ctx context.Context, identity string) (*models.AttemptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[identity]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// RecordFailure increments the failure count, or starts a fresh record when
// none exists or the last attempt fell before windowStart.
func (r *MemoryAttemptRepository) RecordFailure(ctx context.Context, identity string, now, windowStart time.Time) (*models.AttemptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[identity]
	if !ok || rec.LastAttemptAt.Before(windowStart) {
		rec = &models.AttemptRecord{Identity: identity}
		r.records[identity] = rec
	}
	rec.FailedCount++
	rec.LastAttemptAt = now

	cp := *rec
	return &cp, nil
}

// DeleteIfStale removes the record only if its last attempt is before windowStart
func (r *MemoryAttemptRepository) DeleteIfStale(ctx context.Context, identity string, windowStart time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[identity]; ok && rec.LastAttemptAt.Before(windowStart) {
		delete(r.records, identity)
	}
	return nil
}

// Delete removes the record for identity unconditionally
func (r *MemoryAttemptRepository) Delete(ctx context.Context, identity string) error {
	r.mu.Lock()
	delete(r.records, identity)
	r.mu.Unlock()
	return nil
}

// List returns copies of all records ordered by identity
func (r *MemoryAttemptRepository) List(ctx context.Context) ([]models.AttemptRecord, error) {
	r.mu.Lock()
	out := make([]models.AttemptRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}

// PurgeOlderThan deletes every record whose last attempt is before cutoff
func (r *MemoryAttemptRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for identity, rec := range r.records {
		if rec.LastAttemptAt.Before(cutoff) {
			delete(r.records, identity)
			purged++
		}
	}
	return purged, nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryAttemptRepository) Ping(ctx context.Context) error {
	return nil
}
