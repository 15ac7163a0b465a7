package policy

import "strings"

// score ranks a match: a lower kind wins, then a longer matched span.
type score struct {
	kind matchKind
	span int
}

func (s score) better(than score) bool {
	if s.kind != than.kind {
		return s.kind < than.kind
	}
	return s.span > than.span
}

func (r *rule) match(fullMethod string) (score, bool) {
	switch r.kind {
	case kindExact:
		return score{kindExact, len(r.pattern)}, fullMethod == r.pattern
	case kindPrefix:
		return score{kindPrefix, len(r.pattern)}, strings.HasPrefix(fullMethod, r.pattern)
	case kindRegex:
		if loc := r.re.FindStringIndex(fullMethod); loc != nil {
			return score{kindRegex, loc[1] - loc[0]}, true
		}
	}
	return score{}, false
}
