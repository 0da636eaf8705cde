package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationRepository keeps revoked session IDs as keys that expire
// together with the credential they revoke
type RedisRevocationRepository struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisRevocationRepository(client *redis.Client, keyPrefix string) *RedisRevocationRepository {
	return &RedisRevocationRepository{
		client: client,
		prefix: keyPrefix + "revoked:",
		now:    time.Now,
	}
}

// RevokeSession adds a session ID to the revocation list until expiresAt
func (r *RedisRevocationRepository) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil // already unusable
	}

	// Keep the key a little past expiry so it outlives the last accepted second
	if err := r.client.Set(ctx, r.prefix+sessionID, "1", ttl+time.Second).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsSessionRevoked checks if a session ID is in the revocation list
func (r *RedisRevocationRepository) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: Redis expires the keys itself
func (r *RedisRevocationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
