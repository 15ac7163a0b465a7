package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/contextx"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// KeyFunc derives the cache key of a request. Returning false bypasses the
// cache for that request.
type KeyFunc func(req any, opts strategy.Options) (string, bool)

// entry is the cached form of a success outcome. Actor users are kept in
// their own field so that a hit restores the contextx.Actor type.
type entry struct {
	User  any             `json:"user,omitempty"`
	Actor *contextx.Actor `json:"actor,omitempty"`
	Info  any             `json:"info,omitempty"`
}

func newEntry(res strategy.SuccessResult) entry {
	e := entry{Info: res.Info}
	switch u := res.User.(type) {
	case contextx.Actor:
		e.Actor = &u
	case *contextx.Actor:
		e.Actor = u
	}
	if e.Actor == nil {
		e.User = res.User
	}
	return e
}

func (e entry) user() any {
	if e.Actor != nil {
		return *e.Actor
	}
	return e.User
}

// uncached carries a non-success outcome out of a cache loader so that it
// is delivered without being stored.
type uncached struct {
	res strategy.Result
}

func (u *uncached) Error() string {
	return "cache: " + u.res.Type().String() + " outcome is not cached"
}

// Strategy wraps inner so that its success outcomes are cached under the
// key returned by key for ttl. A hit signals Success without running inner.
//
// The run that fills the cache delivers the outcome of inner unchanged. Hits
// decode the stored JSON: a contextx.Actor user (or *contextx.Actor) comes
// back as a contextx.Actor, any other user and the info come back as the
// generic JSON types (maps, slices, strings, float64 and bool).
//
// Failures, redirects, passes and errors are never cached. Concurrent
// requests with the same key share one run of inner.
func Strategy(inner strategy.Strategy, c Cache, key KeyFunc, ttl time.Duration) strategy.Strategy {
	return strategy.Func(strategy.NameOf(inner), func(sc *strategy.Context, req any, opts strategy.Options) {
		k, ok := key(req, opts)
		if !ok {
			res, err := strategy.Run(sc.Context(), inner, req, opts)
			strategy.Forward(sc, res, err)
			return
		}

		// live is set only when this caller ran inner itself.
		var live *strategy.SuccessResult
		raw, err := c.GetOrSet(sc.Context(), k, ttl, func(ctx context.Context) ([]byte, error) {
			res, err := strategy.Run(ctx, inner, req, opts)
			if err != nil {
				return nil, err
			}
			success, ok := res.(strategy.SuccessResult)
			if !ok {
				return nil, &uncached{res: res}
			}
			live = &success
			return json.Marshal(newEntry(success))
		})

		var u *uncached
		switch {
		case errors.As(err, &u):
			strategy.Forward(sc, u.res, nil)
		case err != nil:
			sc.Error(err)
		case live != nil:
			sc.Success(live.User, live.Info)
		default:
			var e entry
			if err := json.Unmarshal(raw, &e); err != nil {
				zerolog.Ctx(sc.Context()).Warn().Err(err).Str("key", k).Msg("Dropping undecodable cache entry")
				_ = c.Delete(sc.Context(), k)
				sc.Error(err)
				return
			}
			sc.Success(e.user(), e.Info)
		}
	})
}
