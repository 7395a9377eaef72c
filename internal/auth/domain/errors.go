package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

// Authentication errors.
var (
	// ErrMissingCredential indicates the Authorization header was absent or
	// not a bearer token.
	ErrMissingCredential = errors.Wrap(errors.ErrUnauthorized, "missing bearer credential")

	// ErrInvalidCredential indicates the token failed parsing or signature
	// verification, or carries malformed claims.
	ErrInvalidCredential = errors.Wrap(errors.ErrUnauthorized, "invalid credential")

	// ErrCredentialExpired indicates the token itself is past its expiry.
	ErrCredentialExpired = errors.Wrap(errors.ErrUnauthorized, "credential expired")

	// ErrVersionMismatch indicates the token was issued before the
	// principal's last bulk revocation.
	ErrVersionMismatch = errors.Wrap(errors.ErrUnauthorized, "credential version superseded")

	// ErrTokenDenied indicates the token identifier is on the deny list.
	ErrTokenDenied = errors.Wrap(errors.ErrUnauthorized, "credential revoked")

	// ErrMissingTenantHeader indicates an authenticated request arrived
	// without the tenant scoping header.
	ErrMissingTenantHeader = errors.Wrap(errors.ErrMalformedRequest, "missing tenant header")

	// ErrTenantMismatch indicates a request aimed at a tenant other than the
	// credential's.
	ErrTenantMismatch = errors.Wrap(errors.ErrForbidden, "tenant scope violation")
)
