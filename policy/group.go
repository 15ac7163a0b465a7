// Package policy groups gRPC methods and attaches an authentication policy
// to each group: which strategies run, whether a request must end up
// authenticated, and how long the strategies may take.
package policy

import (
	"regexp"
	"time"

	"github.com/Keksclan/goRawrStrategy/strategy"
)

// Policy is the authentication policy of a method group.
type Policy struct {
	// Strategies are registry names, tried in order. Empty means the
	// default strategies of the server apply.
	Strategies []string
	// AuthRequired rejects requests that no strategy authenticated, even
	// when a strategy passed.
	AuthRequired bool
	// Options are handed to every strategy of the group.
	Options strategy.Options
	// Timeout bounds how long the interceptor waits for a strategy to
	// signal. Zero means the RPC deadline alone applies.
	Timeout time.Duration
}

type matchKind int

// Lower kinds win over higher ones.
const (
	kindExact matchKind = iota
	kindPrefix
	kindRegex
)

type rule struct {
	kind    matchKind
	pattern string
	re      *regexp.Regexp
}

// GroupBuilder collects the matching rules and the policy of one group.
type GroupBuilder struct {
	name   string
	rules  []rule
	policy *Policy
}

// Group starts a method group called name.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Exact matches fullMethod == pattern.
func (g *GroupBuilder) Exact(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: pattern})
	return g
}

// Prefix matches methods starting with pattern, e.g. "/admin.".
func (g *GroupBuilder) Prefix(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: pattern})
	return g
}

// Regex matches methods containing a match of pattern. It panics on an
// invalid expression.
func (g *GroupBuilder) Regex(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: pattern, re: regexp.MustCompile(pattern)})
	return g
}

// Policy sets the group's policy.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}

// Name returns the group name.
func (g *GroupBuilder) Name() string {
	return g.name
}
