package core

import "google.golang.org/grpc"

// BuildServerOptions turns sorted interceptor slices into the chain options
// for grpc.NewServer. Empty slices add no option.
func BuildServerOptions(unary []grpc.UnaryServerInterceptor, stream []grpc.StreamServerInterceptor) []grpc.ServerOption {
	var opts []grpc.ServerOption

	if len(unary) != 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unary...))
	}

	if len(stream) != 0 {
		opts = append(opts, grpc.ChainStreamInterceptor(stream...))
	}

	return opts
}
