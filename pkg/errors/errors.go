// Package errors provides structured error types for graphsim.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the editor core
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
//   - NOT_FOUND: reference to an absent node or edge
//   - DUPLICATE_EDGE: an edge with the same derived id already exists
//   - INVALID_ARGUMENT: unknown t-norm, slot or a value that is not a number
//   - TRANSPORT_ERROR: network failure or non-2xx response from the analysis service
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "node %s", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing node
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidConfig, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Model errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeDuplicateEdge   Code = "DUPLICATE_EDGE"
	ErrCodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Remote analysis errors
	ErrCodeTransport Code = "TRANSPORT_ERROR"

	// Startup errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by error types that carry a code without being *Error.
type coder interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a coded error
// (such as *TransportError) with a matching code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no coded error is in the chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// As is errors.As, re-exported so callers need a single errors import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.describe()
	}
	return err.Error()
}

// TransportError reports a failed round trip to the analysis service.
// Status is the HTTP status code, or 0 when no response was received.
type TransportError struct {
	Endpoint string
	Status   int
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeTransport, e.describe())
}

func (e *TransportError) describe() string {
	msg := e.Message
	if e.Status > 0 {
		msg = fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
		if e.Message != "" {
			msg += ": " + e.Message
		}
	} else if e.Endpoint != "" {
		msg = e.Endpoint + ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying network error, if any.
func (e *TransportError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *TransportError) Code() Code { return ErrCodeTransport }

// Transport creates a TransportError for a response with a non-success status.
func Transport(endpoint string, status int, message string) *TransportError {
	return &TransportError{Endpoint: endpoint, Status: status, Message: message}
}

// TransportFailure creates a TransportError for a request that produced no
// usable response (connection refused, timeout, undecodable body).
func TransportFailure(endpoint string, cause error, format string, args ...any) *TransportError {
	return &TransportError{Endpoint: endpoint, Message: fmt.Sprintf(format, args...), Cause: cause}
}
