// Package domain defines the credential claims carried by bearer tokens.
package domain

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// Claims is the payload encoded into every issued bearer token. SessionVersion
// is the principal's version counter at issue time; a mismatch with the live
// counter rejects the credential unconditionally. The registered ID claim
// (jti) is the token identifier keyed by the deny list.
type Claims struct {
	jwt.RegisteredClaims

	TenantID       string `json:"tid"`
	BranchID       string `json:"bid,omitempty"`
	Tier           string `json:"tier"`
	SessionVersion int64  `json:"sver"`
	SessionID      string `json:"sid"`
	Platform       string `json:"plt"`
}

// PrincipalID returns the subject claim as a UUID.
func (c *Claims) PrincipalID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenID returns the jti claim as a UUID.
func (c *Claims) TokenID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// PrivilegeTier returns the tier claim as an ordinal tier.
func (c *Claims) PrivilegeTier() (principalDomain.Tier, bool) {
	return principalDomain.ParseTier(c.Tier)
}

// SessionPlatform returns the platform claim, normalized to a known platform.
func (c *Claims) SessionPlatform() sessionDomain.Platform {
	return sessionDomain.Platform(c.Platform).Normalize()
}
