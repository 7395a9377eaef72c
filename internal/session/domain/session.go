// Package domain defines session records and per-platform lifecycle policy.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Platform is the client category that opened a session. Lifecycle policy is
// keyed by platform: shared terminals get short idle windows, back-office and
// integration clients moderate ones, mobile the longest.
type Platform string

// Known client platforms.
const (
	PlatformPOSTerminal    Platform = "pos-terminal"
	PlatformKitchenDisplay Platform = "kitchen-display"
	PlatformWebBackoffice  Platform = "web-backoffice"
	PlatformMobile         Platform = "mobile"
	PlatformIntegration    Platform = "integration-portal"
	PlatformUnknown        Platform = "unknown"
)

// Normalize maps unrecognized platform values to PlatformUnknown so they pick
// up the conservative default policy instead of failing.
func (p Platform) Normalize() Platform {
	switch p {
	case PlatformPOSTerminal, PlatformKitchenDisplay, PlatformWebBackoffice,
		PlatformMobile, PlatformIntegration:
		return p
	default:
		return PlatformUnknown
	}
}

// Source is how the login credential was presented.
type Source string

// Known credential sources.
const (
	SourcePassword Source = "password"
	SourcePIN      Source = "pin"
	SourceBadge    Source = "badge"
	SourceAPIKey   Source = "api-key"
)

// Policy holds the three lifecycle numbers for a platform: how long a session
// may sit idle, how long it may live in total, and the minimum interval
// between last-activity writes (bounding write amplification on hot sessions).
type Policy struct {
	IdleTimeout   time.Duration
	MaxLifetime   time.Duration
	TouchThrottle time.Duration
}

// policies is the static per-platform policy table.
var policies = map[Platform]Policy{
	PlatformPOSTerminal:    {IdleTimeout: 10 * time.Minute, MaxLifetime: 12 * time.Hour, TouchThrottle: time.Minute},
	PlatformKitchenDisplay: {IdleTimeout: 5 * time.Minute, MaxLifetime: 12 * time.Hour, TouchThrottle: time.Minute},
	PlatformWebBackoffice:  {IdleTimeout: 30 * time.Minute, MaxLifetime: 8 * time.Hour, TouchThrottle: time.Minute},
	PlatformMobile:         {IdleTimeout: 60 * time.Minute, MaxLifetime: 24 * time.Hour, TouchThrottle: time.Minute},
	PlatformIntegration:    {IdleTimeout: 30 * time.Minute, MaxLifetime: 8 * time.Hour, TouchThrottle: time.Minute},
	PlatformUnknown:        {IdleTimeout: 15 * time.Minute, MaxLifetime: 8 * time.Hour, TouchThrottle: time.Minute},
}

// PolicyFor returns the lifecycle policy for a platform.
func PolicyFor(platform Platform) Policy {
	return policies[platform.Normalize()]
}

// MaxLifetime returns the longest absolute session lifetime across all
// platforms. Deny-list TTLs must be at least this long so a denied token can
// never outlive its entry.
func MaxLifetime() time.Duration {
	var longest time.Duration
	for _, policy := range policies {
		if policy.MaxLifetime > longest {
			longest = policy.MaxLifetime
		}
	}
	return longest
}

// Revocation reasons recorded on terminated sessions.
const (
	ReasonLogout         = "logout"
	ReasonLogoutAll      = "logout-all"
	ReasonIdleTimeout    = "idle-timeout"
	ReasonExpired        = "expired"
	ReasonCredentialRisk = "credential-compromised"
	ReasonAdmin          = "admin-revoked"
)

// Session is the durable record of one login instance.
//
// A session with a non-nil RevokedAt is permanently terminal; a session past
// ExpiresAt is implicitly terminal even if never explicitly revoked.
type Session struct {
	ID             uuid.UUID
	PrincipalID    uuid.UUID
	TenantID       uuid.UUID
	Platform       Platform
	Source         Source
	TokenID        uuid.UUID
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	RevokedBy      *uuid.UUID
	RevokeReason   *string
}

// CreateSessionInput contains the parameters for opening a new session.
type CreateSessionInput struct {
	PrincipalID uuid.UUID
	TenantID    uuid.UUID
	Platform    Platform
	Source      Source
	TokenID     uuid.UUID
	IPAddress   string
	UserAgent   string
}

// Revoked reports whether the session was explicitly terminated.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Expired reports whether the session is past its absolute lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Idle reports whether the session sat inactive longer than the platform's
// idle threshold at now.
func (s *Session) Idle(now time.Time) bool {
	policy := PolicyFor(s.Platform)
	return now.Sub(s.LastActivityAt) > policy.IdleTimeout
}

// ShouldTouch reports whether enough time elapsed since the last activity
// write to justify another one. A non-positive throttle falls back to the
// platform policy's interval.
func (s *Session) ShouldTouch(now time.Time, throttle time.Duration) bool {
	if throttle <= 0 {
		throttle = PolicyFor(s.Platform).TouchThrottle
	}
	return now.Sub(s.LastActivityAt) >= throttle
}
