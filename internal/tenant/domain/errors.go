package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

var (
	// ErrTenantNotFound is returned when a tenant does not exist.
	ErrTenantNotFound = errors.Wrap(errors.ErrNotFound, "tenant not found")
)
