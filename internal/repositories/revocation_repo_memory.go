package repositories

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationRepository tracks revoked session IDs in process memory
type MemoryRevocationRepository struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // session ID -> credential expiry
}

// NewMemoryRevocationRepository creates an empty revocation list
func NewMemoryRevocationRepository() *MemoryRevocationRepository {
	return &MemoryRevocationRepository{
		revoked: make(map[string]time.Time),
	}
}

// RevokeSession marks a session ID as revoked until expiresAt
func (r *MemoryRevocationRepository) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	r.mu.Lock()
	r.revoked[sessionID] = expiresAt
	r.mu.Unlock()
	return nil
}

// IsSessionRevoked reports whether sessionID has been revoked
func (r *MemoryRevocationRepository) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	_, ok := r.revoked[sessionID]
	r.mu.RUnlock()
	return ok, nil
}

// PurgeExpired drops revocations whose credential would have expired anyway
func (r *MemoryRevocationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, expiresAt := range r.revoked {
		if now.After(expiresAt) {
			delete(r.revoked, id)
			purged++
		}
	}
	return purged, nil
}
