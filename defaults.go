package gorawrstrategy

import (
	"time"

	"github.com/Keksclan/goRawrStrategy/auth"
)

// DefaultOptions returns the recommended set of options for production use:
// panic recovery and a five second bound on every strategy.
func DefaultOptions() []Option {
	return []Option{
		WithRecovery(),
		WithAuth(auth.WithTimeout(5 * time.Second)),
	}
}
