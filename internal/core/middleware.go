// Package core orders the pieces NewServer assembles: interceptors by a
// fixed position in the chain and strategy decorators by their nesting.
package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// Positions of the built-in interceptors. User interceptors come last.
const (
	OrderRecovery  = 100
	OrderRequestID = 200
	OrderLogging   = 300
	OrderTracing   = 400
	OrderMetrics   = 500
	OrderAuth      = 600
	OrderUser      = 1000
)

type interceptorPair struct {
	name   string
	order  int
	unary  grpc.UnaryServerInterceptor
	stream grpc.StreamServerInterceptor
}

// MiddlewareBuilder collects interceptors and hands them out sorted by
// position. Entries at the same position keep the order they were added in.
type MiddlewareBuilder struct {
	entries []interceptorPair
}

// Add places a unary and a stream interceptor at order. Either may be nil.
func (b *MiddlewareBuilder) Add(order int, name string, unary grpc.UnaryServerInterceptor, stream grpc.StreamServerInterceptor) {
	b.entries = append(b.entries, interceptorPair{name: name, order: order, unary: unary, stream: stream})
}

func (b *MiddlewareBuilder) sorted() []interceptorPair {
	slices.SortStableFunc(b.entries, func(x, y interceptorPair) int {
		return cmp.Compare(x.order, y.order)
	})
	return b.entries
}

// Names lists the entries in execution order.
func (b *MiddlewareBuilder) Names() []string {
	names := make([]string, 0, len(b.entries))
	for _, e := range b.sorted() {
		names = append(names, e.name)
	}
	return names
}

// Build returns the unary and stream interceptors in execution order.
func (b *MiddlewareBuilder) Build() (unary []grpc.UnaryServerInterceptor, stream []grpc.StreamServerInterceptor) {
	for _, e := range b.sorted() {
		if e.unary != nil {
			unary = append(unary, e.unary)
		}
		if e.stream != nil {
			stream = append(stream, e.stream)
		}
	}
	return unary, stream
}
