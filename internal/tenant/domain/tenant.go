package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the billing plan a tenant subscribes to. The plan decides the
// request ceiling applied to every principal of the tenant.
type Plan string

const (
	PlanStarter  Plan = "starter"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// planCeilings maps each plan to the number of requests allowed per
// rate-limit window.
var planCeilings = map[Plan]int64{
	PlanStarter:  10,
	PlanStandard: 60,
	PlanPremium:  240,
}

// Valid reports whether the plan is a known billing plan.
func (p Plan) Valid() bool {
	_, ok := planCeilings[p]
	return ok
}

// RequestCeiling returns the per-window request ceiling for the plan.
// Unknown plans get the starter ceiling, the most restrictive one.
func (p Plan) RequestCeiling() int64 {
	if ceiling, ok := planCeilings[p]; ok {
		return ceiling
	}
	return planCeilings[PlanStarter]
}

// Tenant is a restaurant group subscribed to the platform.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      Plan      `json:"plan"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
