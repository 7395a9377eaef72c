package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

// Principal errors.
var (
	// ErrPrincipalNotFound indicates a principal with the specified ID or login was not found.
	ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")

	// ErrInvalidCredentials indicates the presented login credential is wrong.
	// Returned for unknown logins as well, to prevent enumeration.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrPrincipalInactive indicates the principal exists but is disabled.
	ErrPrincipalInactive = errors.Wrap(errors.ErrForbidden, "principal is inactive")
)
