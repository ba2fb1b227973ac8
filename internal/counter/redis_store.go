package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a shared Redis instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing Redis client. The caller keeps
// ownership of the client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// IncrementAndGet runs INCR and EXPIRE NX in one pipeline round trip.
// EXPIRE NX only sets the TTL when the key has none, so the window is
// created exactly once and expires on its own.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, windowExpiry time.Duration) (int64, error) {
	k := s.key(key)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, windowExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("counter increment failed: %w", err)
	}
	return incr.Val(), nil
}

// Get returns the current count without mutating it.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("counter get failed: %w", err)
	}
	return val, true, nil
}

// TTL returns the remaining window for the key.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("counter ttl failed: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
