package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Persistence errors
	ErrEmptyFilter = fmt.Errorf("refusing to delete without a filter")

	// Session errors
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Kind is the stable discriminant every failed operation is reported with.
type Kind int

const (
	KindBackend Kind = iota
	KindClient
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindLoginFailed
)

// String returns the wire name of the kind, as sent in JSON error bodies.
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client_error"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindLoginFailed:
		return "login_failed"
	default:
		return "backend_error"
	}
}

// Status maps a [Kind] to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindClient:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized, KindLoginFailed:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to callers; Err holds the
// underlying cause and is only ever logged.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// BackendError wraps an unexpected storage or infrastructure failure.
// The caller-facing message is always generic.
func BackendError(err error) *Error {
	return &Error{Kind: KindBackend, Message: "Server error", Err: err}
}

func ClientError(msg string) *Error {
	return &Error{Kind: KindClient, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "Unauthorized"}
}

// LoginFailed is returned for both unknown users and wrong passwords.
func LoginFailed() *Error {
	return &Error{Kind: KindLoginFailed, Message: "Invalid login credentials"}
}

// AsError extracts the [*Error] from err's chain.
//
// Unclassified errors are reported as backend errors wrapping err.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return BackendError(err)
}

// KindOf returns the [Kind] of err, or [KindBackend] when err was never classified.
func KindOf(err error) Kind {
	return AsError(err).Kind
}
