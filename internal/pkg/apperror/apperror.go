package apperror

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error class surfaced to API clients.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "RESOURCE_CONFLICT"
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Error carries a client-safe message plus an internal cause that is logged
// but never serialized into a response.
type Error struct {
	Code          Code
	ClientMessage string
	Operation     string
	Cause         error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Operation, e.Code, e.ClientMessage, e.Cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Operation, e.Code, e.ClientMessage)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(code Code, operation, clientMessage string) *Error {
	return &Error{Code: code, Operation: operation, ClientMessage: clientMessage}
}

func Wrap(code Code, operation, clientMessage string, cause error) *Error {
	return &Error{Code: code, Operation: operation, ClientMessage: clientMessage, Cause: cause}
}

func Validation(operation, clientMessage string) *Error {
	return New(CodeValidation, operation, clientMessage)
}

func NotFound(operation, clientMessage string) *Error {
	return New(CodeNotFound, operation, clientMessage)
}

func Conflict(operation, clientMessage string) *Error {
	return New(CodeConflict, operation, clientMessage)
}

func Dependency(operation string, cause error) *Error {
	return Wrap(CodeDependency, operation, "A downstream dependency failed. Please try again.", cause)
}

// CodeOf extracts the error class, defaulting to DEPENDENCY_ERROR for
// anything that is not an *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeDependency
}

// ClientMessageOf returns the message that is safe to show to a caller.
func ClientMessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ClientMessage
	}
	return "Internal server error"
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
