// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// LoginResponse contains the issued bearer credential.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Platform  string    `json:"platform"`
}

// SessionResponse represents a session in API responses. The token identifier
// and credential material are deliberately excluded.
type SessionResponse struct {
	ID             string    `json:"id"`
	Platform       string    `json:"platform"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IPAddress      string    `json:"ip_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
}

// NewSessionResponse maps a session to its API representation.
func NewSessionResponse(session *sessionDomain.Session) SessionResponse {
	return SessionResponse{
		ID:             session.ID.String(),
		Platform:       string(session.Platform),
		Source:         string(session.Source),
		CreatedAt:      session.CreatedAt,
		LastActivityAt: session.LastActivityAt,
		ExpiresAt:      session.ExpiresAt,
		IPAddress:      session.IPAddress,
		UserAgent:      session.UserAgent,
	}
}

// SessionListResponse wraps the active-session listing.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// RevokedResponse reports how many sessions a revocation affected.
type RevokedResponse struct {
	RevokedSessions int64 `json:"revoked_sessions"`
}

// AuditEntryResponse represents one authorization decision in API responses.
type AuditEntryResponse struct {
	ID            string    `json:"id"`
	ActorID       string    `json:"actor_id"`
	ActorTier     string    `json:"actor_tier"`
	Action        string    `json:"action"`
	Decision      string    `json:"decision"`
	ResourceID    string    `json:"resource_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewAuditEntryResponse maps an audit entry to its API representation.
func NewAuditEntryResponse(entry *capabilityDomain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:            entry.ID.String(),
		ActorID:       entry.ActorID.String(),
		ActorTier:     entry.ActorTier,
		Action:        string(entry.Action),
		Decision:      string(entry.Decision),
		ResourceID:    entry.ResourceID,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt,
	}
}
