// Package dErrors provides code-tagged domain errors. Services return these
// so transport layers can map failures to HTTP statuses without inspecting
// error strings, and so tests can assert on failure class rather than text.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are part of the API contract: handlers
// translate them to HTTP statuses and clients may branch on them.
type Code string

const (
	// CodeNotFound signals the requested entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeForbidden signals the actor lacks the capability for the operation.
	// Distinct from an empty result: callers must be able to tell the two apart.
	CodeForbidden Code = "forbidden"
	// CodeUnauthorized signals missing or invalid authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeValidation signals input that fails domain validation rules.
	CodeValidation Code = "validation_error"
	// CodeBadRequest signals a malformed request (undecodable body, bad UUID).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput signals a value rejected at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation signals an illegal state transition or a broken
	// aggregate invariant. Converted to CodeValidation at the API boundary.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeConflict signals a uniqueness or concurrent-modification conflict.
	CodeConflict Code = "conflict"
	// CodeInternal signals an unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error is a domain error carrying a classification code, a human-readable
// message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause remains
// reachable via errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if de, ok := e.(*Error); ok && de.Code == code {
			return true
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the outermost domain error code, defaulting to CodeInternal
// for plain errors so unclassified failures never leak as client faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost domain error message, or a generic one.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
