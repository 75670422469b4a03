// Package errors provides structured error types for srclib-cargo.
//
// Every failure that can end a scan carries a machine-readable [Code] so the
// CLI can print one descriptive line and callers can branch on the category
// without string matching.
//
// # Error Codes
//
// Codes are grouped by the stage that produces them:
//   - INVALID_*: configuration and input validation, reported before scanning
//   - PROVIDER_ERROR, TIMEOUT: the package-metadata provider failed
//   - GRAPH_CONSISTENCY, PATH_ERROR: programming errors in the scan pipeline
//   - MANIFEST_NOT_FOUND: nothing to scan
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "unknown discovery strategy %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // report before scanning
//	}
//
//	// Wrap an underlying error
//	err := errors.Wrap(errors.ErrCodeProvider, runErr, "cargo metadata %s", manifest)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration and input validation errors
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidLocator  Code = "INVALID_LOCATOR"

	// Resource not found errors
	ErrCodeManifestNotFound Code = "MANIFEST_NOT_FOUND"

	// Metadata provider errors
	ErrCodeProvider Code = "PROVIDER_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"

	// Pipeline invariant violations
	ErrCodeGraphConsistency Code = "GRAPH_CONSISTENCY"
	ErrCodePath             Code = "PATH_ERROR"

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
// Only the outermost *Error in the chain is consulted, so a provider error
// that wraps a validation error still reports PROVIDER_ERROR.
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

// UserMessage returns the one-line message printed by the CLI.
// For *Error types the code prefix is dropped and the cause, if any, is
// appended. Other errors are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether err belongs to a category that must abort the run
// even when the driver is configured to keep going: configuration errors and
// broken pipeline invariants.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeInvalidPath, ErrCodePath, ErrCodeInternal:
		return true
	}
	return false
}
