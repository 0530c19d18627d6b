package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spinlytics/casino-analytics/pkg/redis"
)

const defaultLockTTL = 10 * time.Minute

// FetchLock coordinates cache population across sessions. The rename-based
// cache write is safe without it; the lock only avoids duplicate downloads.
type FetchLock interface {
	Acquire(ctx context.Context, dataset string) (bool, error)
	Release(ctx context.Context, dataset string) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	FetchLockKey(dataset string) string
}

// RedisLock implements FetchLock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed fetch lock.
func NewRedisLock(client redisStore, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, ttl: ttl}, nil
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context, dataset string) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.client.FetchLockKey(dataset), owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context, dataset string) error {
	if l.owner == "" {
		return nil
	}
	key := l.client.FetchLockKey(dataset)
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// NoopLock always acquires. Used when no redis endpoint is configured.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context, string) (bool, error) { return true, nil }
func (NoopLock) Release(context.Context, string) error         { return nil }
