package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/admingate/internal/models"
	"github.com/redis/go-redis/v9"
)

// Each identity is one hash {count, last}; last is unix milliseconds.
var recordFailureScript = redis.NewScript(`
local last = tonumber(redis.call('HGET', KEYS[1], 'last'))
local count = 1
if last ~= nil and last >= tonumber(ARGV[2]) then
	count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0') + 1
end
redis.call('HSET', KEYS[1], 'count', count, 'last', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return count
`)

var deleteIfStaleScript = redis.NewScript(`
local last = tonumber(redis.call('HGET', KEYS[1], 'last'))
if last ~= nil and last < tonumber(ARGV[1]) then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisAttemptRepository stores the attempt ledger in Redis. Updates run as
// Lua scripts so each read-modify-write is atomic on the server.
type RedisAttemptRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisAttemptRepository creates a ledger store under keyPrefix
func NewRedisAttemptRepository(client *redis.Client, keyPrefix string) *RedisAttemptRepository {
	return &RedisAttemptRepository{
		client: client,
		prefix: keyPrefix + "attempts:",
	}
}

func (r *RedisAttemptRepository) key(identity string) string {
	return r.prefix + identity
}

// Get returns the record for identity, or nil if there is none
func (r *RedisAttemptRepository) Get(ctx context.Context, identity string) (*models.AttemptRecord, error) {
	fields, err := r.client.HGetAll(ctx, r.key(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read attempt record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseAttemptFields(identity, fields)
}

// RecordFailure atomically increments the failure count, restarting at 1 when
// the previous attempt is older than windowStart. Keys expire after twice the
// window so abandoned identities do not accumulate.
func (r *RedisAttemptRepository) RecordFailure(ctx context.Context, identity string, now, windowStart time.Time) (*models.AttemptRecord, error) {
	ttl := 2 * now.Sub(windowStart)
	if ttl < time.Second {
		ttl = time.Second
	}

	count, err := recordFailureScript.Run(ctx, r.client, []string{r.key(identity)},
		now.UnixMilli(), windowStart.UnixMilli(), ttl.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	return &models.AttemptRecord{
		Identity:      identity,
		FailedCount:   count,
		LastAttemptAt: time.UnixMilli(now.UnixMilli()),
	}, nil
}

// DeleteIfStale removes the record only if its last attempt is before windowStart
func (r *RedisAttemptRepository) DeleteIfStale(ctx context.Context, identity string, windowStart time.Time) error {
	err := deleteIfStaleScript.Run(ctx, r.client, []string{r.key(identity)}, windowStart.UnixMilli()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to expire attempt record: %w", err)
	}
	return nil
}

// Delete removes the record for identity unconditionally
func (r *RedisAttemptRepository) Delete(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, r.key(identity)).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}

// List returns all records ordered by identity
func (r *RedisAttemptRepository) List(ctx context.Context) ([]models.AttemptRecord, error) {
	var records []models.AttemptRecord

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read attempt record: %w", err)
		}
		if len(fields) == 0 {
			continue // expired between SCAN and HGETALL
		}
		rec, err := parseAttemptFields(strings.TrimPrefix(key, r.prefix), fields)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan attempt records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Identity < records[j].Identity })
	return records, nil
}

// PurgeOlderThan deletes every record whose last attempt is before cutoff.
// Key TTLs normally do this already.
func (r *RedisAttemptRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := deleteIfStaleScript.Run(ctx, r.client, []string{iter.Val()}, cutoff.UnixMilli()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return purged, fmt.Errorf("failed to purge attempt record: %w", err)
		}
		purged += n
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("failed to scan attempt records: %w", err)
	}

	return purged, nil
}

// Ping checks Redis reachability
func (r *RedisAttemptRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func parseAttemptFields(identity string, fields map[string]string) (*models.AttemptRecord, error) {
	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return nil, fmt.Errorf("corrupt attempt count for %q: %w", identity, err)
	}
	lastMs, err := strconv.ParseInt(fields["last"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt attempt timestamp for %q: %w", identity, err)
	}

	return &models.AttemptRecord{
		Identity:      identity,
		FailedCount:   count,
		LastAttemptAt: time.UnixMilli(lastMs),
	}, nil
}
