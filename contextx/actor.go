package contextx

import (
	"context"
	"slices"
)

// Actor is the identity a strategy authenticated for the current request.
// The auth interceptor builds it from a successful strategy outcome and
// stores it via [WithActor]; handlers read it with [ActorFromContext].
//
//	actor := contextx.Actor{Subject: "user-42", Strategy: "bearer"}
//	ctx = contextx.WithActor(ctx, actor)
type Actor struct {
	Subject  string
	Tenant   string
	ClientID string
	Scopes   []string

	// Strategy is the name of the strategy that authenticated the request.
	Strategy string
	// User and Info are the values the strategy passed to Success.
	User any
	Info any
}

// WithActor returns a derived context that carries the given Actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext extracts the Actor stored in ctx.
// The boolean return value indicates whether an Actor was present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// HasScope reports whether a was granted scope.
func (a Actor) HasScope(scope string) bool {
	return slices.Contains(a.Scopes, scope)
}
