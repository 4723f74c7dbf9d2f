// Package errors provides structured error types for wallyup.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so callers can branch on the category of the failure without
// matching on message text:
//   - MALFORMED_*: the registry snapshot or the manifest is structurally broken
//   - INVALID_*: user input (focus, reference, manifest path) is unusable
//   - UNKNOWN_PACKAGE: a referenced package is absent from the index
//   - NETWORK_ERROR, INSTALL_FAILED, INTERNAL_ERROR: environment failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownPackage, "%s/%s not in index", domain, name)
//	if errors.Is(err, errors.ErrCodeUnknownPackage) {
//	    // skip this dependency
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "clone %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Snapshot and manifest content errors
	ErrCodeMalformedVersion       Code = "MALFORMED_VERSION"
	ErrCodeMalformedRegistryEntry Code = "MALFORMED_REGISTRY_ENTRY"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFocus     Code = "INVALID_FOCUS"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeInvalidManifest  Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeUnknownPackage Code = "UNKNOWN_PACKAGE"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Environment errors
	ErrCodeNetwork       Code = "NETWORK_ERROR"
	ErrCodeInstallFailed Code = "INSTALL_FAILED"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code,
// so a code wrapped inside a different code is still found.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
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
