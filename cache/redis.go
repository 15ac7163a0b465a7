package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// L2 is a Redis-backed cache layer. All operations fail soft: if Redis is
// unavailable, methods return a miss (or silently discard the write) instead
// of surfacing the error to the caller. Failures are logged at warn level
// through the logger in the context.
type L2 struct {
	rdb    redis.UniversalClient
	prefix string
	loads  singleflight.Group
}

// L2Option configures an L2.
type L2Option func(*L2)

// WithKeyPrefix namespaces every key written to Redis.
func WithKeyPrefix(prefix string) L2Option {
	return func(l *L2) { l.prefix = prefix }
}

// NewL2 creates a new Redis-backed L2 cache.
func NewL2(addr, password string, db int, opts ...L2Option) *L2 {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewL2FromClient(rdb, opts...)
}

// NewL2FromClient wraps an existing client. Close closes it.
func NewL2FromClient(rdb redis.UniversalClient, opts ...L2Option) *L2 {
	l := &L2{rdb: rdb}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *L2) key(key string) string {
	return l.prefix + key
}

func (l *L2) failSoft(ctx context.Context, op, key string, err error) {
	zerolog.Ctx(ctx).Warn().Err(err).
		Str("op", op).
		Str("key", key).
		Msg("Redis cache unavailable")
}

// Get retrieves a value by key. Returns (nil, false, nil) on a miss or when
// Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := l.rdb.Get(ctx, l.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.failSoft(ctx, "get", key, err)
		}
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value under key with the given TTL. A zero TTL means the entry
// has no automatic expiration. Errors are logged and discarded.
func (l *L2) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := l.rdb.Set(ctx, l.key(key), val, ttl).Err(); err != nil {
		l.failSoft(ctx, "set", key, err)
	}
	return nil
}

// Delete removes key. Errors are logged and discarded.
func (l *L2) Delete(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.key(key)).Err(); err != nil {
		l.failSoft(ctx, "del", key, err)
	}
	return nil
}

// GetOrSet deduplicates loads within this process only.
func (l *L2) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}
	return loadShared(ctx, &l.loads, key, loader, func(val []byte) { _ = l.Set(ctx, key, val, ttl) })
}

// Ping checks the Redis connection.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}
