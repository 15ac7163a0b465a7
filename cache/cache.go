// Package cache stores strategy outcomes in ristretto, in Redis, or in both
// stacked as two tiers.
package cache

import (
	"bytes"
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader computes the value of a key that was not cached.
type Loader func(context.Context) ([]byte, error)

// Cache is implemented by L1, L2 and Tiered.
type Cache interface {
	// Get reports a miss with false and a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores val for ttl; zero keeps it until evicted.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete of an absent key succeeds.
	Delete(ctx context.Context, key string) error
	// GetOrSet runs loader once per missing key, however many callers ask
	// for it concurrently, and caches a successful result.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error)
}

// loadShared runs loader for key through group and hands a fresh value to
// store before any waiting caller sees it.
func loadShared(ctx context.Context, group *singleflight.Group, key string, loader Loader, store func([]byte)) ([]byte, error) {
	v, err, _ := group.Do(key, func() (any, error) {
		val, err := loader(ctx)
		if err == nil {
			store(val)
		}
		return val, err
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v.([]byte)), nil
}
