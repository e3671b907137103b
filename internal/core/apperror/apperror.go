package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the core can report.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindStore         Kind = "store"
)

// Retryable reports whether the caller may retry an operation that failed with this kind.
func (k Kind) Retryable() bool {
	return k == KindStore
}

// Error is the only error type the core returns to its callers.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Cause)
		}
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Store wraps a persistence failure. The message shown to clients never includes the cause.
func Store(op string, cause error) *Error {
	return &Error{
		Kind:    KindStore,
		Message: "something went wrong, please try again",
		Op:      op,
		Cause:   cause,
	}
}

// KindOf returns the kind of err, treating anything that is not an *Error as a store failure.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Message returns the human readable text that is safe to show to a client.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong, please try again"
}
