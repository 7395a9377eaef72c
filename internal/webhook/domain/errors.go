// Package domain defines webhook verification failure classes.
package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

var (
	// ErrMissingHeader is returned when signature, timestamp, or request ID is
	// absent.
	ErrMissingHeader = errors.Wrap(errors.ErrMalformedRequest, "missing webhook header")

	// ErrInvalidTimestamp is returned when the timestamp is not numeric.
	ErrInvalidTimestamp = errors.Wrap(errors.ErrMalformedRequest, "invalid webhook timestamp")

	// ErrStaleTimestamp is returned when the timestamp falls outside the
	// freshness window, in either direction.
	ErrStaleTimestamp = errors.Wrap(errors.ErrUnauthorized, "webhook timestamp outside freshness window")

	// ErrBadSignature is returned when the supplied signature does not match
	// the expected one.
	ErrBadSignature = errors.Wrap(errors.ErrUnauthorized, "webhook signature mismatch")

	// ErrReplay is returned when the request ID has already been processed.
	ErrReplay = errors.Wrap(errors.ErrConflict, "webhook request already processed")

	// ErrUnknownProvider is returned when no signing secret is configured for
	// the provider. This is an operator defect, never an open door.
	ErrUnknownProvider = errors.Wrap(errors.ErrMisconfigured, "no signing secret for webhook provider")
)
