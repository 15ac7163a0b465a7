// Package gorawrstrategy runs passport-style authentication strategies in
// front of a gRPC server.
//
// A strategy (see package strategy) inspects a request and signals exactly
// one outcome: success, fail, redirect, pass or error. [NewServer] registers
// strategies under names, wraps each one with the configured decorators
// (tracing, metrics, IP blocking, rate limiting, outcome caching, circuit
// breaking, retries) and installs an interceptor chain that runs the
// strategies selected by the policy of the called method:
//
//	srv, err := gorawrstrategy.NewServer(
//		gorawrstrategy.WithRecovery(),
//		gorawrstrategy.WithStrategy("bearer", bearer),
//		gorawrstrategy.WithDefaultStrategies("bearer"),
//		gorawrstrategy.WithPolicies(
//			policy.Group("admin").Prefix("/admin.").Policy(policy.Policy{AuthRequired: true}),
//		),
//	)
//	pb.RegisterMyServiceServer(srv.GRPC(), &myImpl{})
//
// Servers can also be described by a YAML file and environment variables;
// see package config and [FromConfig].
package gorawrstrategy
