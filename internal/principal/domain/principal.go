// Package domain defines principal entities and privilege tiers.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is the coarse privilege level of a principal. Tiers are ordered; a
// higher ordinal grants every action available to lower ordinals, except for
// the owner-exclusive action subset which requires TierOwner exactly.
type Tier int

// Privilege tiers, lowest to highest.
const (
	TierCashier Tier = iota + 1
	TierSupervisor
	TierManager
	TierAdmin
	TierOwner
)

// String returns the tier name used in tokens, audit records, and logs.
func (t Tier) String() string {
	switch t {
	case TierCashier:
		return "cashier"
	case TierSupervisor:
		return "supervisor"
	case TierManager:
		return "manager"
	case TierAdmin:
		return "admin"
	case TierOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a defined tier.
func (t Tier) Valid() bool {
	return t >= TierCashier && t <= TierOwner
}

// ParseTier converts a tier name back to its ordinal. Returns false for
// unknown names.
func ParseTier(name string) (Tier, bool) {
	switch name {
	case "cashier":
		return TierCashier, true
	case "supervisor":
		return TierSupervisor, true
	case "manager":
		return TierManager, true
	case "admin":
		return TierAdmin, true
	case "owner":
		return TierOwner, true
	default:
		return 0, false
	}
}

// Principal is an authenticated actor: an employee or integration identity
// scoped to a tenant and optionally to a branch.
//
// SessionVersion is a monotonic counter mutated only by the revocation system.
// Every issued credential embeds the version current at issue time; bumping the
// counter invalidates all previously issued credentials for the principal at
// once.
type Principal struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	BranchID       *uuid.UUID
	Login          string
	CredentialHash string
	Tier           Tier
	SessionVersion int64
	IsActive       bool
	CreatedAt      time.Time
}
