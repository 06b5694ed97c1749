// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them to
// status codes and a stable machine-readable code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state.
	KindConflict
	// KindForbidden indicates the action is not allowed for the resource.
	KindForbidden
	// KindUnauthorized indicates the actor does not own or operate the resource.
	KindUnauthorized
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Stable error codes returned to API callers.
const (
	CodeNotFound            = "not_found"
	CodeForbidden           = "forbidden"
	CodeUnauthorized        = "unauthorized"
	CodeInvalidInput        = "invalid_input"
	CodeOperatorUnavailable = "operator_unavailable"
	CodeInvalidOperator     = "invalid_operator"
	CodeNoScriptConfigured  = "no_script_configured"
	CodeStepResolution      = "step_resolution_error"
	CodeSessionClosed       = "session_closed"
	CodeStatusConflict      = "status_conflict"
	CodeInternal            = "internal"
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithOp sets the operation on the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches response details to the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

// InvalidInput creates a validation error for missing or malformed fields.
func InvalidInput(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, CodeInternal, message)
}

// OperatorUnavailable reports a chosen operator that is not accepting work.
func OperatorUnavailable(message string) *Error {
	return New(KindConflict, CodeOperatorUnavailable, message)
}

// InvalidOperator reports an operator that is not on the business roster.
func InvalidOperator(message string) *Error {
	return New(KindValidation, CodeInvalidOperator, message)
}

// NoScriptConfigured reports a business without intake steps.
func NoScriptConfigured(message string) *Error {
	return New(KindBadRequest, CodeNoScriptConfigured, message)
}

// StepResolution reports a session pointing at a step its script does not contain.
func StepResolution(message string) *Error {
	return New(KindConflict, CodeStepResolution, message)
}

// SessionClosed reports a write to a session that is no longer in progress.
func SessionClosed(message string) *Error {
	return New(KindConflict, CodeSessionClosed, message)
}

// StatusConflict reports a lost race on a status compare-and-set.
func StatusConflict(message string) *Error {
	return New(KindConflict, CodeStatusConflict, message)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetCode extracts the error code from an error chain.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is checks if err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// HasCode checks if err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}
