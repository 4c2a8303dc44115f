// Package apperr defines the typed error taxonomy shared by all services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category that maps 1:1 to an HTTP status.
type Kind string

const (
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is an operational error with a kind and a user-visible message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with an explicit kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// BadRequest signals an invalid argument or state transition.
func BadRequest(message string) *Error { return New(KindBadRequest, message) }

// Unauthorized signals a missing or invalid identity.
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Forbidden signals a known identity attempting a disallowed action.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// NotFound signals an absent entity.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict signals a uniqueness or duplicate-state violation.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Internal wraps an unexpected failure. The cause is kept for logging but the
// message is what callers see.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the user-visible message. Unknown errors get a generic one
// so internals never leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
