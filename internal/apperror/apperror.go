// Package apperror defines the error kinds that cross layer boundaries.
//
// Services return *Error values; the HTTP boundary maps each Kind to a fixed
// status code. Anything that is not an *Error is treated as KindInternal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the boundary layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindBadRequest
	KindValidation
	KindDuplicate
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindBadRequest, KindValidation:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithErr attaches the underlying cause.
func (e *Error) WithErr(err error) *Error {
	e.Err = err
	return e
}

// NotFound reports a missing resource, e.g. NotFound("Document").
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: resource + " not found"}
}

// Unauthorized reports an ownership mismatch.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

// Unauthenticated reports a missing or invalid credential.
func Unauthenticated(code, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: code, Message: message}
}

// BadRequest reports malformed input or a rejected file.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Code: "BAD_REQUEST", Message: message}
}

// Validation reports field-level failures; details maps field to message.
func Validation(message string, details map[string]string) *Error {
	if message == "" {
		message = "Validation failed"
	}
	e := &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// Duplicate reports a unique-constraint violation.
func Duplicate(code, message string) *Error {
	return &Error{Kind: KindDuplicate, Code: code, Message: message}
}

// Internal wraps an unclassified failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "Internal server error", Err: err}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
