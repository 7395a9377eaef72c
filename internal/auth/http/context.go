// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"context"

	authUseCase "github.com/opentab/gatekeeper/internal/auth/usecase"
)

// identityKey is a context key type for storing authenticated identities.
type identityKey struct{}

// WithIdentity stores an authenticated identity in the context.
// Called by the authentication middleware after successful credential checks.
func WithIdentity(ctx context.Context, identity *authUseCase.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the authenticated identity from the context.
// Returns (identity, true) if present, or (nil, false) if the request never
// passed the authentication middleware.
func GetIdentity(ctx context.Context) (*authUseCase.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*authUseCase.Identity)
	return identity, ok
}
