package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
)

func TestActionPermits(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		tier    principalDomain.Tier
		allowed bool
	}{
		{"manager can void paid order", ActionVoidPaidOrder, principalDomain.TierManager, true},
		{"owner can void paid order", ActionVoidPaidOrder, principalDomain.TierOwner, true},
		{"supervisor cannot void paid order", ActionVoidPaidOrder, principalDomain.TierSupervisor, false},
		{"admin can post payroll", ActionPostPayroll, principalDomain.TierAdmin, true},
		{"manager cannot post payroll", ActionPostPayroll, principalDomain.TierManager, false},
		{"admin cannot reopen period", ActionReopenPeriod, principalDomain.TierAdmin, false},
		{"owner can reopen period", ActionReopenPeriod, principalDomain.TierOwner, true},
		{"admin cannot rotate billing credential", ActionRotateBillingCredential, principalDomain.TierAdmin, false},
		{"owner can rotate billing credential", ActionRotateBillingCredential, principalDomain.TierOwner, true},
		{"unknown action denied for owner", Action("launch-missiles"), principalDomain.TierOwner, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.action.Permits(tt.tier))
		})
	}
}

func TestActionRequiredTier(t *testing.T) {
	tier, exclusive, ok := ActionReopenPeriod.RequiredTier()
	assert.True(t, ok)
	assert.True(t, exclusive)
	assert.Equal(t, principalDomain.TierOwner, tier)

	tier, exclusive, ok = ActionVoidPaidOrder.RequiredTier()
	assert.True(t, ok)
	assert.False(t, exclusive)
	assert.Equal(t, principalDomain.TierManager, tier)

	_, _, ok = Action("launch-missiles").RequiredTier()
	assert.False(t, ok)
}

func TestActionKnown(t *testing.T) {
	assert.True(t, ActionPostPayroll.Known())
	assert.False(t, Action("").Known())
}
