package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the garden reports it to the user.
type Kind string

const (
	KindNotAuthenticated Kind = "NOT_AUTHENTICATED"
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	KindUnavailable      Kind = "UNAVAILABLE"
	KindWriteFailed      Kind = "WRITE_FAILED"
	KindReadFailed       Kind = "READ_FAILED"
	KindConflict         Kind = "CONFLICT"
)

// Error is the typed error returned by stores and surfaced by the garden.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrUnavailable)
// works regardless of op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Cause == nil
}

// Sentinels for errors.Is checks.
var (
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
	ErrWriteFailed      = &Error{Kind: KindWriteFailed}
	ErrReadFailed       = &Error{Kind: KindReadFailed}
	ErrConflict         = &Error{Kind: KindConflict}
)

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// NotAuthenticated reports an operation attempted without a signed-in user.
func NotAuthenticated(op string) *Error {
	return New(KindNotAuthenticated, op, "no user is signed in")
}

// KindOf returns the kind of err, falling back to fallback when err carries
// no classification.
func KindOf(err error, fallback Kind) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return fallback
}

// HTTPStatus maps a kind onto the status the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
