// Package breaker stops calling an identity backend that keeps erroring.
//
// A Breaker starts Closed and counts consecutive errors. Reaching
// FailureThreshold opens it, and an Open breaker rejects every attempt until
// OpenTimeout has passed. It then turns HalfOpen and lets probes through:
// HalfOpenMaxSuccess successes close it again, a single error reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is signalled by a wrapped strategy while its breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

var stateNames = [...]string{Closed: "closed", Open: "open", HalfOpen: "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

type Config struct {
	// FailureThreshold consecutive errors open a closed breaker.
	FailureThreshold int
	// OpenTimeout is the time an open breaker waits before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxSuccess consecutive probe successes close the breaker.
	HalfOpenMaxSuccess int
	// OnStateChange observes transitions. It runs outside the breaker lock.
	OnStateChange func(from, to State)
}

// Breaker is safe for concurrent use.
type Breaker struct {
	mu  sync.Mutex
	cfg Config

	state    State
	errCount int
	okCount  int
	openedAt time.Time
	nowFunc  func() time.Time
}

// New returns a closed Breaker. Thresholds below 1 are raised to 1.
func New(cfg Config) *Breaker {
	cfg.FailureThreshold = max(cfg.FailureThreshold, 1)
	cfg.HalfOpenMaxSuccess = max(cfg.HalfOpenMaxSuccess, 1)
	return &Breaker{cfg: cfg, nowFunc: time.Now}
}

// update runs fn under the lock, after promoting an expired Open state, and
// reports any state change to OnStateChange once the lock is released.
func (b *Breaker) update(fn func()) {
	b.mu.Lock()
	from := b.state
	if b.state == Open && b.nowFunc().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.moveTo(HalfOpen)
	}
	if fn != nil {
		fn()
	}
	to := b.state
	b.mu.Unlock()

	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// moveTo resets the counters for the new state. b.mu must be held.
func (b *Breaker) moveTo(s State) {
	b.state = s
	b.errCount, b.okCount = 0, 0
	if s == Open {
		b.openedAt = b.nowFunc()
	}
}

// State returns the current state. An Open breaker whose timeout elapsed
// reports HalfOpen.
func (b *Breaker) State() State {
	var s State
	b.update(func() { s = b.state })
	return s
}

// Allow reports whether an attempt may go through. HalfOpen admits probes
// until enough of them succeeded.
func (b *Breaker) Allow() bool {
	var ok bool
	b.update(func() {
		switch b.state {
		case Closed:
			ok = true
		case HalfOpen:
			ok = b.okCount < b.cfg.HalfOpenMaxSuccess
		}
	})
	return ok
}

func (b *Breaker) OnSuccess() {
	b.update(func() {
		switch b.state {
		case Closed:
			b.errCount = 0
		case HalfOpen:
			if b.okCount++; b.okCount >= b.cfg.HalfOpenMaxSuccess {
				b.moveTo(Closed)
			}
		}
	})
}

func (b *Breaker) OnFailure() {
	b.update(func() {
		switch b.state {
		case Closed:
			if b.errCount++; b.errCount >= b.cfg.FailureThreshold {
				b.moveTo(Open)
			}
		case HalfOpen:
			b.moveTo(Open)
		}
	})
}
