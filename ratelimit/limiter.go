// Package ratelimit provides token-bucket rate limiters backed by
// golang.org/x/time/rate and a strategy wrapper that fails authentication
// attempts exceeding them.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Keyed holds one token bucket per key, e.g. per client IP or per
// username, created on first use. A KeyFunc returning a constant turns it
// into a single global bucket.
type Keyed struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*keyedEntry
	now     func() time.Time
}

// NewKeyed creates a Keyed limiter whose buckets permit rps requests per
// second with the given burst.
func NewKeyed(rps float64, burst int) *Keyed {
	return &Keyed{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*keyedEntry),
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	e, ok := k.buckets[key]
	if !ok {
		e = &keyedEntry{lim: rate.NewLimiter(k.rps, k.burst)}
		k.buckets[key] = e
	}
	e.lastSeen = now
	k.mu.Unlock()

	return e.lim.AllowN(now, 1)
}

// Prune drops the buckets of keys not seen for idle and returns how many
// were dropped.
func (k *Keyed) Prune(idle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-idle)
	n := 0
	for key, e := range k.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
