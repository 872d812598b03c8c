package errors

import (
	"errors"
	"fmt"
)

// Code represents a stable error code for programmatic handling.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeInvalid       Code = "invalid"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeStaleDecision Code = "stale_decision"
	CodeTransport     Code = "transport"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeInternal      Code = "internal"
)

// Meta keys carried by validation errors.
const (
	MetaField  = "field"
	MetaReason = "reason"
	MetaFields = "fields"
)

// AppError is a structured error type that carries a code, message, and optional metadata.
type AppError struct {
	Code    Code
	Message string
	Err     error
	Meta    map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// WithMeta attaches metadata to the error.
func (e *AppError) WithMeta(k string, v any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

// New creates a new AppError with code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with code and message.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return New(code, message)
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// Conflict reports that the target project already has an active request.
func Conflict(message string) *AppError { return New(CodeConflict, message) }

// StaleDecision reports that a request was already resolved.
func StaleDecision(message string) *AppError { return New(CodeStaleDecision, message) }

// NotFound reports a missing project or request.
func NotFound(message string) *AppError { return New(CodeNotFound, message) }

// Forbidden reports that the caller role may not perform the operation.
func Forbidden(message string) *AppError { return New(CodeForbidden, message) }

// Transport wraps a failed collaborator call. The cause is kept unmodified.
func Transport(err error, message string) *AppError { return Wrap(err, CodeTransport, message) }

// Validation reports a single invalid field by its dotted path.
func Validation(field, reason string) *AppError {
	return New(CodeInvalid, fmt.Sprintf("%s: %s", field, reason)).
		WithMeta(MetaField, field).
		WithMeta(MetaReason, reason)
}

// IsCode checks if an error has the provided code (through unwrapping).
func IsCode(err error, code Code) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// CodeOf returns the code of the first AppError in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Field returns the field path of a validation error, if any.
func Field(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Meta != nil {
		if f, ok := ae.Meta[MetaField].(string); ok {
			return f
		}
	}
	return ""
}
