package domain

import (
	"github.com/opentab/gatekeeper/internal/errors"
)

// Session lifecycle errors.
var (
	// ErrSessionNotFound indicates a session with the specified ID was not found.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrSessionRevoked indicates the session was explicitly terminated.
	ErrSessionRevoked = errors.Wrap(errors.ErrUnauthorized, "session revoked")

	// ErrSessionExpired indicates the session is past its absolute lifetime.
	ErrSessionExpired = errors.Wrap(errors.ErrUnauthorized, "session expired")

	// ErrSessionIdle indicates the session sat idle past its platform threshold.
	// Detection converts the session to revoked as a side effect.
	ErrSessionIdle = errors.Wrap(errors.ErrUnauthorized, "session idle timeout")
)
