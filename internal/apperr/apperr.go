// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindExpired
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a client-facing failure. Message is safe to echo; Err is logged only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation reports missing or malformed input.
func Validation(message string) *Error { return newError(KindValidation, message, nil) }

// Auth reports missing, invalid or expired credentials.
func Auth(message string) *Error { return newError(KindAuth, message, nil) }

// Forbidden reports a valid identity in a disallowed state.
func Forbidden(message string) *Error { return newError(KindForbidden, message, nil) }

// NotFound reports a missing resource.
func NotFound(message string) *Error { return newError(KindNotFound, message, nil) }

// Conflict reports a duplicate unique key or a lost concurrent update.
func Conflict(message string) *Error { return newError(KindConflict, message, nil) }

// Expired reports an expired one-time code.
func Expired(message string) *Error { return newError(KindExpired, message, nil) }

// Invalid reports a well-formed but incorrect one-time code.
func Invalid(message string) *Error { return newError(KindInvalid, message, nil) }

// Internal wraps an unexpected failure behind a generic message.
func Internal(err error) *Error {
	return newError(KindInternal, "Internal server error", err)
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal if it carries none.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindExpired, KindInvalid:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
