// Package service provides credential issuance and verification.
//
// Credentials are HS256-signed JWTs carrying the principal identity, tenant
// scope, privilege tier, session version, session ID, and a unique token
// identifier (jti) for deny-list targeting.
package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// CredentialService issues and verifies bearer credentials.
type CredentialService interface {
	// Issue signs a credential for the principal bound to the given session.
	// The token expiry matches the session's absolute expiry, capped at the
	// maximum credential lifetime.
	Issue(input *IssueInput) (string, error)

	// Verify parses the token and validates signature, issuer, and expiry.
	// Claims-level checks (version, deny list, session state) are the
	// caller's responsibility.
	Verify(token string) (*authDomain.Claims, error)
}

// IssueInput carries everything stamped into a credential.
type IssueInput struct {
	Principal *principalDomain.Principal
	SessionID uuid.UUID
	TokenID   uuid.UUID
	Platform  sessionDomain.Platform
	ExpiresAt time.Time
}

// credentialService implements CredentialService with a symmetric signing key.
type credentialService struct {
	secret      []byte
	issuer      string
	maxLifetime time.Duration
	parser      *jwt.Parser

	// now is a test hook.
	now func() time.Time
}

func (s *credentialService) Issue(input *IssueInput) (string, error) {
	now := s.now().UTC()
	expiresAt := input.ExpiresAt
	if ceiling := now.Add(s.maxLifetime); expiresAt.After(ceiling) {
		expiresAt = ceiling
	}

	claims := &authDomain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   input.Principal.ID.String(),
			ID:        input.TokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID:       input.Principal.TenantID.String(),
		Tier:           input.Principal.Tier.String(),
		SessionVersion: input.Principal.SessionVersion,
		SessionID:      input.SessionID.String(),
		Platform:       string(input.Platform),
	}
	if input.Principal.BranchID != nil {
		claims.BranchID = input.Principal.BranchID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign credential")
	}
	return signed, nil
}

func (s *credentialService) Verify(tokenString string) (*authDomain.Claims, error) {
	claims := &authDomain.Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, authDomain.ErrCredentialExpired
		}
		return nil, authDomain.ErrInvalidCredential
	}
	return claims, nil
}

// NewCredentialService creates a CredentialService. maxLifetime caps the
// expiry of every issued credential and must not exceed the deny-list TTL.
func NewCredentialService(secret, issuer string, maxLifetime time.Duration) CredentialService {
	return &credentialService{
		secret:      []byte(secret),
		issuer:      issuer,
		maxLifetime: maxLifetime,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(issuer),
		),
		now: time.Now,
	}
}
