// Package auth bridges authentication strategies onto gRPC.
//
// An [AuthFunc] is what the auth interceptors call for every RPC. Most
// callers build one from strategies with [FromStrategies] or, when methods
// are grouped into policies, with [FromPolicies]. Strategy outcomes surface
// as follows:
//
//   - success: the derived context carries a [contextx.Actor]
//   - fail (every strategy): a [*ChallengeError]
//   - redirect: a [*RedirectError]
//   - pass: the request continues unauthenticated
//   - error: a [*StrategyError]
package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// AuthFunc authenticates a gRPC request. It receives the request context,
// the full method name, and the incoming metadata. On success it returns a
// (possibly enriched) context; on failure it returns an error.
type AuthFunc func(ctx context.Context, fullMethod string, md metadata.MD) (context.Context, error)
