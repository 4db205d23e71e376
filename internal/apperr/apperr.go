package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the uniform taxonomy surfaced to API callers.
type Kind int

const (
	// Internal is an unexpected persistence or external-service failure.
	Internal Kind = iota
	// BadRequest covers missing or invalid input, including malformed ids.
	BadRequest
	// Unauthorized covers missing, invalid, or expired credentials.
	Unauthorized
	// Forbidden means the caller is authenticated but not the owner.
	Forbidden
	// NotFound means a referenced entity is absent.
	NotFound
	// Conflict means a write would violate a uniqueness constraint.
	Conflict
	// RateLimited means the caller exceeded the allowed request rate.
	RateLimited
)

// HTTPStatus maps an error kind onto its wire status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error pairs a taxonomy kind with a caller-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an error of the provided kind with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a kinded error. The cause is logged, never sent
// to the caller.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from err, defaulting to Internal so
// unexpected failures never leak detail to the caller.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the caller-safe message for err. Errors outside the
// taxonomy report a generic message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
