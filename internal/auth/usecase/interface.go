// Package usecase implements authentication flows: login, request
// authentication, logout, and session listing.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
)

// PrincipalRepository is the slice of principal persistence authentication
// needs.
type PrincipalRepository interface {
	Get(ctx context.Context, principalID uuid.UUID) (*principalDomain.Principal, error)
	GetByLogin(ctx context.Context, login string) (*principalDomain.Principal, error)
}

// Revoker exposes the revocation checks applied to every request.
type Revoker interface {
	CurrentVersion(ctx context.Context, principalID uuid.UUID) (int64, error)
	BumpVersion(ctx context.Context, principalID uuid.UUID) (int64, error)
	Deny(ctx context.Context, tokenID uuid.UUID, reason string) error
	IsDenied(ctx context.Context, tokenID uuid.UUID) bool
}

// SessionManager is the session lifecycle surface authentication needs.
// Alias of the session module's use case, declared here so the dependency
// direction stays consumer-side.
type SessionManager = sessionUseCase.SessionUseCase

// LoginInput carries a credential presentation.
type LoginInput struct {
	Login     string
	Password  string
	Platform  sessionDomain.Platform
	Source    sessionDomain.Source
	IPAddress string
	UserAgent string
}

// LoginOutput is a successful login: the signed bearer token and the session
// backing it.
type LoginOutput struct {
	Token     string
	Session   *sessionDomain.Session
	Principal *principalDomain.Principal
}

// Identity is the authenticated actor attached to a request.
type Identity struct {
	Principal *principalDomain.Principal
	Claims    *authDomain.Claims
	SessionID uuid.UUID
	TokenID   uuid.UUID
	Platform  sessionDomain.Platform
}

// AuthUseCase implements the authentication lifecycle.
type AuthUseCase interface {
	// Login verifies a password or PIN, opens a session, and issues a bearer
	// credential stamped with the principal's current session version.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Authenticate resolves a bearer token to an Identity. Checks run in
	// order: signature and expiry, session-version match (rejects on any
	// evaluation error), deny list (store outage admits), then session state.
	// A stale last-activity triggers an async throttled touch that never
	// blocks the response.
	Authenticate(ctx context.Context, bearerToken string) (*Identity, error)

	// Logout revokes the identity's session and denies its token.
	Logout(ctx context.Context, identity *Identity) error

	// LogoutEverywhere bumps the principal's session version and revokes all
	// of its sessions. Returns the number of sessions revoked.
	LogoutEverywhere(ctx context.Context, identity *Identity) (int64, error)

	// ListSessions returns the principal's active sessions, newest activity
	// first.
	ListSessions(ctx context.Context, principalID uuid.UUID) ([]*sessionDomain.Session, error)

	// RevokePrincipalSessions bumps the target principal's session version
	// and revokes all of its sessions on behalf of an administrative actor.
	// Returns the number of sessions revoked.
	RevokePrincipalSessions(ctx context.Context, actor *Identity, targetID uuid.UUID) (int64, error)
}
