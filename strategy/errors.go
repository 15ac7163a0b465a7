package strategy

import (
	"errors"
	"fmt"
)

var (
	// ErrStrategyPanic matches every *PanicError.
	ErrStrategyPanic = errors.New("strategy panicked")

	// ErrUnknownStrategy is returned by Registry lookups for unregistered names.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrDuplicateStrategy is returned when a name is registered twice.
	ErrDuplicateStrategy = errors.New("strategy already registered")

	// ErrNoOutcome is signalled by Forward when it is given neither a result
	// nor an error.
	ErrNoOutcome = errors.New("no outcome to forward")
)

// PanicError is the completion error of an awaited run whose Authenticate
// panicked before signalling an outcome.
type PanicError struct {
	Strategy string
	Value    any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("strategy %s panicked: %v", e.Strategy, e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (e *PanicError) Is(target error) bool {
	return target == ErrStrategyPanic
}
