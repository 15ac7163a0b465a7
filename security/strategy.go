package security

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// ErrUnsupportedRequest is signalled when the strategy receives a request
// other than *auth.Request.
var ErrUnsupportedRequest = errors.New("ipblock: request carries no peer information")

// Strategy checks the client address of an *auth.Request against b.
// Denied clients fail with status 403. Allowed clients are handed to inner,
// or pass when inner is nil so that the next strategy decides.
func Strategy(b *IPBlocker, inner strategy.Strategy) strategy.Strategy {
	name := "ipblock"
	if inner != nil {
		name = strategy.NameOf(inner)
	}

	return strategy.Func(name, func(c *strategy.Context, req any, opts strategy.Options) {
		r, ok := req.(*auth.Request)
		if !ok {
			c.Error(ErrUnsupportedRequest)
			return
		}

		if !b.Evaluate(r.Peer, r.Metadata) {
			addr, _ := b.ClientAddr(r.Peer, r.Metadata)
			zerolog.Ctx(c.Context()).Info().
				Str("client", addr.String()).
				Str("method", r.FullMethod).
				Msg("Client address blocked")
			c.Fail(strategy.Feedback{Message: "client address not allowed"}, http.StatusForbidden)
			return
		}

		if inner == nil {
			c.Pass()
			return
		}
		res, err := strategy.Run(c.Context(), inner, req, opts)
		strategy.Forward(c, res, err)
	})
}
