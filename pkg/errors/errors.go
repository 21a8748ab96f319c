// Package errors provides structured error types for exprgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the graph core, model loader and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Construction errors (NOT_ARRAY, PREDECESSOR_COUNT, SHAPE_MISMATCH,
// NO_IDENTITY, FROZEN, GRAPH_CYCLE) are reported while a graph is being
// built and leave the graph unchanged. SHAPE_MISMATCH is also returned at
// propagation time when two dynamically sized operands diverge. The
// remaining codes cover the leaves, model files and the CLI.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeShapeMismatch, "operand %d has shape %v", i, shape)
//	if errors.Is(err, errors.ErrCodeShapeMismatch) {
//	    // reject the move
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph construction errors
	ErrCodeNotArray         Code = "NOT_ARRAY"
	ErrCodePredecessorCount Code = "PREDECESSOR_COUNT"
	ErrCodeShapeMismatch    Code = "SHAPE_MISMATCH"
	ErrCodeNoIdentity       Code = "NO_IDENTITY"
	ErrCodeFrozen           Code = "FROZEN"
	ErrCodeGraphCycle       Code = "GRAPH_CYCLE"
	ErrCodeUnknownNode      Code = "UNKNOWN_NODE"

	// Leaf mutation errors
	ErrCodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"
	ErrCodeOutOfBounds     Code = "OUT_OF_BOUNDS"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidName   Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCodeOr returns the error code of err, or fallback if err carries none.
func GetCodeOr(err error, fallback Code) Code {
	if code := GetCode(err); code != "" {
		return code
	}
	return fallback
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
