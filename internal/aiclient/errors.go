package aiclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed completion so callers can branch on it
type Kind string

const (
	KindUnauthorized  Kind = "unauthorized"
	KindModelNotFound Kind = "model_not_found"
	KindRateLimited   Kind = "rate_limited"
	KindProvider      Kind = "provider_error"
	KindTimeout       Kind = "timeout"
	KindConnection    Kind = "connection_error"
)

// Sentinels for errors.Is matching on kind alone
var (
	ErrUnauthorized  = &Error{Kind: KindUnauthorized}
	ErrModelNotFound = &Error{Kind: KindModelNotFound}
	ErrRateLimited   = &Error{Kind: KindRateLimited}
	ErrProvider      = &Error{Kind: KindProvider}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrConnection    = &Error{Kind: KindConnection}
)

// Error is returned by every Client call that fails
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai provider %s (http %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("ai provider %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err did not come from this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
