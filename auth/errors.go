package auth

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
)

// ChallengeError is returned when every strategy that ran failed, or when
// authentication is required and no strategy authenticated the request.
type ChallengeError struct {
	// Challenges lists the string challenges of the failed strategies in
	// the order they ran.
	Challenges []string
	// Status is the first non-zero status a strategy failed with.
	Status int
	// Message is the first feedback message a strategy failed with.
	Message string
}

func (e *ChallengeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "authentication failed"
	}
	if len(e.Challenges) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (challenge: %s)", msg, strings.Join(e.Challenges, ", "))
}

// StatusCode returns Status, defaulting to 401.
func (e *ChallengeError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusUnauthorized
	}
	return e.Status
}

func (e *ChallengeError) Is(target error) bool {
	return reflect.TypeOf(e) == reflect.TypeOf(target)
}

// RedirectError is returned when a strategy redirected the client.
type RedirectError struct {
	Strategy string
	URL      string
	Status   int
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("strategy %s redirected to %s (%d)", e.Strategy, e.URL, e.Status)
}

func (e *RedirectError) Is(target error) bool {
	return reflect.TypeOf(e) == reflect.TypeOf(target)
}

// StrategyError wraps the error a strategy signalled.
type StrategyError struct {
	Strategy string
	Cause    error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Cause)
}

func (e *StrategyError) Unwrap() error {
	return e.Cause
}
