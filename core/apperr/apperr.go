// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Services return *Error values; handlers map the Kind to a status.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by who is at fault and how the caller should react.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindInvalidType
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidType:
		return "invalid_type"
	case KindTooLarge:
		return "too_large"
	default:
		return "internal"
	}
}

// Error is a classified error with a user-facing message.
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

// Is matches another *Error of the same kind and message, so sentinel values
// declared with New can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// Internal wraps an unexpected storage or database failure.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

// Cause returns the underlying error message of an internal error, if any.
func Cause(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return e.Err.Error()
		}
		return ""
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
