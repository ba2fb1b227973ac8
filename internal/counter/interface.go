package counter

import (
	"context"
	"time"
)

// Store is an atomic counter with per-key window expiry, shared across
// all service instances. It backs the rate limiter.
type Store interface {
	// IncrementAndGet atomically increments the counter for key and
	// returns the post-increment value. The first increment of a key
	// creates it with the given expiry; the expiry is never extended
	// afterwards, so the window resets itself.
	IncrementAndGet(ctx context.Context, key string, windowExpiry time.Duration) (int64, error)
	// Get returns the current count without mutating it. ok is false
	// when the key does not exist.
	Get(ctx context.Context, key string) (count int64, ok bool, err error)
	// TTL returns the remaining window for the key, zero when absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
