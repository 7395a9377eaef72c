// Package usecase implements the capability authorization gate.
package usecase

import (
	"context"

	"github.com/google/uuid"

	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
)

// AuditRepository persists the append-only authorization trail.
type AuditRepository interface {
	Append(ctx context.Context, entry *capabilityDomain.AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*capabilityDomain.AuditEntry, error)
}

// AuthorizeInput carries the request context recorded alongside the decision.
type AuthorizeInput struct {
	Principal     *principalDomain.Principal
	Action        capabilityDomain.Action
	ResourceID    string
	CorrelationID string
	BeforeState   []byte
	AfterState    []byte
}

// CapabilityUseCase decides whether a principal may invoke a high-risk action.
type CapabilityUseCase interface {
	// Authorize allows or denies the action for the principal's tier and
	// records the decision to the audit trail. The audit write is best-effort:
	// its failure is logged but never flips the decision either way.
	Authorize(ctx context.Context, input *AuthorizeInput) error

	// ListAuditEntries returns the tenant's newest decisions.
	ListAuditEntries(ctx context.Context, tenantID uuid.UUID, limit int) ([]*capabilityDomain.AuditEntry, error)
}
