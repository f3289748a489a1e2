// Package errors provides code-tagged domain errors. Services attach a Code
// to every rejection so callers and the HTTP layer can distinguish failure
// kinds programmatically instead of matching on message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure kind. Codes are part of the API contract; the
// message is free text for humans.
type Code string

const (
	// Generic codes shared by every surface.
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// Registry codes. Every rejection the registry can produce maps to
	// exactly one of these, so no failure collapses into a generic boolean.
	CodeInvalidPrincipal   Code = "invalid_principal"
	CodeAlreadyAuthorized  Code = "already_authorized"
	CodeNotAuthorized      Code = "not_authorized"
	CodeProtectedPrincipal Code = "protected_principal"
	CodeDuplicateID        Code = "duplicate_id"
	CodeAlreadyRevoked     Code = "already_revoked"
)

// Error is a code-tagged error, optionally wrapping a cause.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a code-tagged error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Unwrap for logging; only Code and Message are
// surfaced to API clients.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for untagged
// errors so unexpected failures never leak as client faults.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeInvalidPrincipal:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeProtectedPrincipal:
		return http.StatusForbidden
	case CodeNotFound, CodeNotAuthorized:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateID, CodeAlreadyAuthorized, CodeAlreadyRevoked, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
