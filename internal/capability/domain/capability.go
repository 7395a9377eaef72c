// Package domain defines the high-risk action catalogue and its tier rules.
package domain

import (
	"time"

	"github.com/google/uuid"

	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
)

// Action is a named high-risk mutating operation gated by privilege tier.
type Action string

const (
	ActionVoidPaidOrder           Action = "void-paid-order"
	ActionReopenPeriod            Action = "reopen-period"
	ActionPostPayroll             Action = "post-payroll"
	ActionRotateBillingCredential Action = "rotate-billing-credential"
	ActionRevokePrincipalSessions Action = "revoke-principal-sessions"
	ActionViewAuditLog            Action = "view-audit-log"
)

// grant pairs the minimum tier with the owner-exclusivity flag. Exclusive
// actions require exactly TierOwner; tier ordering does not apply to them.
type grant struct {
	minTier   principalDomain.Tier
	exclusive bool
}

// catalogue is the static action table. Read-only at runtime.
var catalogue = map[Action]grant{
	ActionVoidPaidOrder:           {minTier: principalDomain.TierManager},
	ActionPostPayroll:             {minTier: principalDomain.TierAdmin},
	ActionRevokePrincipalSessions: {minTier: principalDomain.TierAdmin},
	ActionViewAuditLog:            {minTier: principalDomain.TierAdmin},
	ActionReopenPeriod:            {minTier: principalDomain.TierOwner, exclusive: true},
	ActionRotateBillingCredential: {minTier: principalDomain.TierOwner, exclusive: true},
}

// Known reports whether the action exists in the catalogue.
func (a Action) Known() bool {
	_, ok := catalogue[a]
	return ok
}

// RequiredTier returns the minimum tier for the action and whether the action
// is owner-exclusive. ok is false for unknown actions.
func (a Action) RequiredTier() (tier principalDomain.Tier, exclusive bool, ok bool) {
	g, ok := catalogue[a]
	return g.minTier, g.exclusive, ok
}

// Permits reports whether the given tier may invoke the action.
func (a Action) Permits(tier principalDomain.Tier) bool {
	g, ok := catalogue[a]
	if !ok {
		return false
	}
	if g.exclusive {
		return tier == principalDomain.TierOwner
	}
	return tier >= g.minTier
}

// Decision is the outcome of an authorization check.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// AuditEntry is one append-only record of an authorization decision.
type AuditEntry struct {
	ID            uuid.UUID  `json:"id"`
	ActorID       uuid.UUID  `json:"actor_id"`
	ActorTier     string     `json:"actor_tier"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	BranchID      *uuid.UUID `json:"branch_id,omitempty"`
	Action        Action     `json:"action"`
	Decision      Decision   `json:"decision"`
	ResourceID    string     `json:"resource_id,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	BeforeState   []byte     `json:"before_state,omitempty"`
	AfterState    []byte     `json:"after_state,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
