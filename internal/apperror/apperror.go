// Package apperror defines the error codes shared by the repository, file
// store and HTTP layers. Handlers translate a Code into a status exactly once.
package apperror

import (
	"errors"
	"net/http"
)

// Code classifies a failure.
type Code string

const (
	CodeValidation      Code = "validation"
	CodeConflict        Code = "conflict"
	CodeNotFound        Code = "not_found"
	CodeInvalidArgument Code = "invalid_argument"
	CodeRateLimited     Code = "rate_limited"
	CodeForbidden       Code = "forbidden"
	CodeUnauthorized    Code = "unauthorized"
	CodeInternal        Code = "internal"
)

// Error carries a code, a client-safe message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	// Details holds per-field messages for validation failures.
	Details []string
	// Field names the offending field for conflicts (email, mobile_number).
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error.
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// Validation builds a validation failure from a list of messages.
func Validation(details []string) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Details: details}
}

// Conflict reports a uniqueness violation on field.
func Conflict(field, message string, cause error) *Error {
	return &Error{Code: CodeConflict, Message: message, Field: field, Err: cause}
}

// NotFound is shorthand for a CodeNotFound error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// InvalidArgument is shorthand for a CodeInvalidArgument error.
func InvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// HTTPStatus maps a code to the response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeConflict, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
