package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// L1 keeps values in process memory. Every entry costs 1, so maxCost is the
// number of entries it holds.
type L1 struct {
	rc    *ristretto.Cache[string, []byte]
	loads singleflight.Group
}

func NewL1(maxCost int64) (*L1, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10 * maxCost,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &L1{rc: rc}, nil
}

// Get returns a copy, so callers may modify it.
func (l *L1) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := l.rc.Get(key); ok {
		return bytes.Clone(v), true, nil
	}
	return nil, false, nil
}

// Set returns once the value is visible to Get.
func (l *L1) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	l.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	l.rc.Wait()
	return nil
}

func (l *L1) Delete(_ context.Context, key string) error {
	l.rc.Del(key)
	return nil
}

func (l *L1) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	return loadShared(ctx, &l.loads, key, loader, func(val []byte) { _ = l.Set(ctx, key, val, ttl) })
}

func (l *L1) Close() { l.rc.Close() }
