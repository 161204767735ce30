// Package errors provides structured error types for the dactyl generator.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - Field-path context for configuration errors
//   - Anchor-chain context for resolution errors
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - PARSE_*: configuration document validation failures
//   - *_ANCHOR: anchor registry and resolution failures
//   - INVALID_*: malformed corner/segment requests
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownAnchor, "no anchor named %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownAnchor) {
//	    // Handle missing anchor
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "reading %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration document errors
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeInvalidKey   Code = "INVALID_KEY"
	ErrCodeMissingField Code = "MISSING_FIELD"

	// Anchor graph errors
	ErrCodeUnknownAnchor   Code = "UNKNOWN_ANCHOR"
	ErrCodeDuplicateAnchor Code = "DUPLICATE_ANCHOR"
	ErrCodeCyclicAnchor    Code = "CYCLIC_ANCHOR"

	// Placement request errors
	ErrCodeInvalidCorner  Code = "INVALID_CORNER"
	ErrCodeInvalidSegment Code = "INVALID_SEGMENT"
	ErrCodeOutOfBounds    Code = "OUT_OF_BOUNDS"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// Path is the configuration field path for parse-time errors,
	// from the document root to the offending field.
	Path []string

	// Chain is the anchor reference chain for resolution-time errors,
	// outermost request first. It lets the caller report which feature
	// pulled in the failing anchor when isolating per-feature failures.
	Chain []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " (via %s)", strings.Join(e.Chain, " -> "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
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

// At returns a copy of the error with the field path set.
// Used by the document parser to attach the path from the root.
func (e *Error) At(path ...string) *Error {
	dup := *e
	dup.Path = append([]string(nil), path...)
	return &dup
}

// Via returns a copy of the error with the anchor chain set.
// Used by the placement resolver to attach the chain of anchor names
// active when resolution failed.
func (e *Error) Via(chain ...string) *Error {
	dup := *e
	dup.Chain = append([]string(nil), chain...)
	return &dup
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

// AsError unwraps err into target if the chain contains an *Error.
// It is a convenience for callers that import this package under the
// name errors and so shadow the standard library.
func AsError(err error, target **Error) bool {
	return errors.As(err, target)
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

// GetChain extracts the anchor chain from an error, if available.
// Returns nil if the error is not an *Error or carries no chain.
func GetChain(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Chain
	}
	return nil
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
