package engine

import (
	"errors"
	"strings"
)

// Kind classifies why an invocation failed.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindLaunchFailed    Kind = "launch_failed"
	KindEmptyOutput     Kind = "empty_output"
	KindInvalidResponse Kind = "invalid_response"
	KindEngineFailure   Kind = "engine_failure"
	KindCanceled        Kind = "canceled"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrLaunchFailed    = &Error{Kind: KindLaunchFailed}
	ErrEmptyOutput     = &Error{Kind: KindEmptyOutput}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrCanceled        = &Error{Kind: KindCanceled}
)

type Error struct {
	Kind       Kind
	Engine     string
	Message    string
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}
