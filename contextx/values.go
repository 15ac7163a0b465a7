package contextx

import "context"

// RequestIDHeader is the metadata key a request id is read from and echoed
// back on.
const RequestIDHeader = "x-request-id"

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithRequestID stores the id of the current call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "" outside a call.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithGroup stores the policy group the called method resolved to.
func WithGroup(ctx context.Context, group string) context.Context {
	return context.WithValue(ctx, groupKey, group)
}

// GroupFromContext returns the policy group, or "" when the method matched
// none.
func GroupFromContext(ctx context.Context) string {
	return stringValue(ctx, groupKey)
}
