package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Tiered reads L1, then Redis, then the loader, and writes Redis before L1.
// Redis errors never fail a Tiered call.
type Tiered struct {
	l1 *L1
	l2 *L2

	loads singleflight.Group
}

func NewTiered(l1 *L1, l2 *L2) *Tiered {
	return &Tiered{l1: l1, l2: l2}
}

// Get copies a Redis hit into L1 without a TTL, since the remaining Redis TTL
// is not known.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return t.lookup(ctx, key, 0)
}

// lookup checks both tiers and promotes a Redis hit into L1 for promoteTTL.
func (t *Tiered) lookup(ctx context.Context, key string, promoteTTL time.Duration) ([]byte, bool, error) {
	if v, ok, _ := t.l1.Get(ctx, key); ok {
		return v, true, nil
	}
	v, ok, _ := t.l2.Get(ctx, key)
	if !ok {
		return nil, false, nil
	}
	_ = t.l1.Set(ctx, key, v, promoteTTL)
	return v, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = t.l2.Set(ctx, key, val, ttl)
	return t.l1.Set(ctx, key, val, ttl)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l2.Delete(ctx, key)
	return t.l1.Delete(ctx, key)
}

// GetOrSet promotes a Redis hit into L1 with ttl.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error) {
	if v, ok, _ := t.lookup(ctx, key, ttl); ok {
		return v, nil
	}
	return loadShared(ctx, &t.loads, key, loader, func(val []byte) { _ = t.Set(ctx, key, val, ttl) })
}
