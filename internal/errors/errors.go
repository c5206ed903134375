package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig   = "CONFIG"
	ErrFetch    = "FETCH"
	ErrFiles    = "FILES"
	ErrTransfer = "TRANSFER"
	ErrNotify   = "NOTIFY"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrFetch code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrFetch,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// OperationFailed collapses a transport, HTTP, or decode failure into the single
// user-facing error shown for an operation. The cause is kept for logs and errors.As.
// Transfer operations (upload, download, delete) get ErrTransfer, everything else ErrFetch.
func OperationFailed(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}

	code := ErrFetch
	switch op {
	case "upload", "download", "delete":
		code = ErrTransfer
	}

	return &Error{
		Code:       code,
		Message:    op + " failed",
		Suggestion: "Check that the agent is reachable, then retry.",
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var fdErr *Error
	if errors.As(err, &fdErr) {
		return fdErr.Code == code
	}
	return false
}

// UserMessage returns a single-line message for display in tight spaces
// (status bars, cards). Structured errors render as "message: cause".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fdErr *Error
	if errors.As(err, &fdErr) {
		if fdErr.Cause != nil {
			return fdErr.Message + ": " + firstLine(fdErr.Cause.Error())
		}
		return fdErr.Message
	}
	return firstLine(err.Error())
}

func firstLine(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "✗"))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name "errors" keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

// Join is errors.Join.
func Join(errs ...error) error { return errors.Join(errs...) }
