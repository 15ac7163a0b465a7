// Package contextx holds the typed context values shared by the
// interceptors and the handlers behind them: the authenticated actor, the
// request id and the resolved policy group.
package contextx

type contextKey int

const (
	actorKey contextKey = iota
	requestIDKey
	groupKey
)
