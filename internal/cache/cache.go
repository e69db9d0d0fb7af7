// Package cache provides the bounded TTL response cache read through by provider lookups.
package cache

import (
	"context"
	"time"

	"solana-revival-scanner/internal/observability"
)

// Cache stores JSON-serializable values with a time-to-live.
type Cache interface {
	// Get decodes the value stored under key into dst. Returns false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Fetch returns the cached value for key or calls load and caches its result.
// Load errors are returned as-is and never cached. Cache errors degrade to a direct load.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c != nil {
		hit, err := c.Get(ctx, key, &v)
		if err == nil && hit {
			observability.RecordCacheLookup(true)
			return v, nil
		}
		observability.RecordCacheLookup(false)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, nil
}

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

var _ Cache = Nop{}
