// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., a replayed
	// webhook delivery or a duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedRequest indicates a required security header is missing or
	// unparseable. Always terminal; the server never retries these.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrUnauthorized indicates the request lacks valid authentication credentials
	// (absent, expired, revoked, or version-mismatched).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated principal doesn't have permission
	// (tenant-scope violation or insufficient capability tier).
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the caller exceeded its request quota for the
	// current window. Retryable after the interval carried by RateLimitError.
	ErrRateLimited = errors.New("rate limited")

	// ErrMisconfigured indicates a missing secret or policy. This is an
	// operator-facing defect, never a client error, and must not silently
	// degrade into an accept.
	ErrMisconfigured = errors.New("misconfigured")
)

// RateLimitError carries the retry hint for a rejected request.
// It wraps ErrRateLimited so errors.Is(err, ErrRateLimited) holds.
type RateLimitError struct {
	RetryAfterSeconds int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfterSeconds)
}

// Unwrap links the error to ErrRateLimited for errors.Is checks.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
