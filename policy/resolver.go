package policy

// Resolver maps a full gRPC method name to the group that matches it best.
type Resolver struct {
	groups []*GroupBuilder
}

func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve picks the group for fullMethod. An exact rule beats a prefix rule,
// which beats a regex rule; within a kind the longest match wins and ties go
// to the group registered first. The Policy is nil when the winning group
// never set one.
func (res *Resolver) Resolve(fullMethod string) (groupName string, pol *Policy, ok bool) {
	if res == nil {
		return "", nil, false
	}

	var best score
	for _, g := range res.groups {
		for i := range g.rules {
			s, matched := g.rules[i].match(fullMethod)
			if !matched || (ok && !s.better(best)) {
				continue
			}
			best, ok = s, true
			groupName, pol = g.name, g.policy
		}
	}
	return groupName, pol, ok
}
