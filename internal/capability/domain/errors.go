package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

var (
	// ErrUnknownAction is returned when an action is not in the catalogue.
	ErrUnknownAction = errors.Wrap(errors.ErrInvalidInput, "unknown action")

	// ErrInsufficientTier is returned when the actor's tier does not permit
	// the action.
	ErrInsufficientTier = errors.Wrap(errors.ErrForbidden, "insufficient privilege tier")
)
