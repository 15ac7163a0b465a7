package ratelimit

import (
	"net"

	"github.com/Keksclan/goRawrStrategy/auth"
	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Global puts every request into one bucket.
func Global(any, strategy.Options) string { return "*" }

// ByPeer keys *auth.Request values by the host of their peer address.
// Requests without a peer share the "unknown" bucket.
func ByPeer(req any, _ strategy.Options) string {
	r, ok := req.(*auth.Request)
	if !ok || r.Peer == nil {
		return "unknown"
	}
	addr := r.Peer.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
