package auth

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// Request is the value strategies receive as their request when they run
// behind the gRPC interceptors.
type Request struct {
	FullMethod string
	Metadata   metadata.MD
	// Peer is the remote address of the connection, nil when unknown.
	Peer net.Addr
}

// NewRequest builds a Request for the RPC running under ctx.
func NewRequest(ctx context.Context, fullMethod string, md metadata.MD) *Request {
	if md == nil {
		md = metadata.MD{}
	}
	req := &Request{FullMethod: fullMethod, Metadata: md}
	if p, ok := peer.FromContext(ctx); ok {
		req.Peer = p.Addr
	}
	return req
}

// Header returns the first metadata value for key.
func (r *Request) Header(key string) string {
	vals := r.Metadata.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Credentials splits the authorization header into scheme and credentials.
// ok is false when the header is missing or malformed.
func (r *Request) Credentials() (scheme, credentials string, ok bool) {
	scheme, credentials, ok = strings.Cut(strings.TrimSpace(r.Header("authorization")), " ")
	if !ok || scheme == "" {
		return "", "", false
	}
	return scheme, strings.TrimSpace(credentials), true
}

// BearerToken returns the token of a "Bearer" authorization header.
func (r *Request) BearerToken() (string, bool) {
	scheme, token, ok := r.Credentials()
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}
