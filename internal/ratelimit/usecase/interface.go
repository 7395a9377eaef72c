// Package usecase implements plan-aware request rate limiting.
//
// Two independent windows gate each request: a per-tenant window whose
// ceiling scales with the tenant's billing plan, and a flat per-source-address
// window that holds regardless of plan. Both must admit. Windows are isolated
// per route, so exhausting one endpoint never throttles another.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	tenantDomain "github.com/opentab/gatekeeper/internal/tenant/domain"
)

// PlanRepository is the slice of tenant persistence the limiter needs.
type PlanRepository interface {
	GetPlan(ctx context.Context, tenantID uuid.UUID) (tenantDomain.Plan, error)
}

// WindowStore provides atomic counter windows on the ephemeral store.
// IncrementWindow must be atomic at the store level so concurrent requests
// never race a read-modify-write.
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitUseCase admits or rejects requests against both windows.
type RateLimitUseCase interface {
	// Admit checks the tenant-plan window and the per-address window for the
	// route. Rejections carry the seconds remaining until the window resets.
	// A failed plan lookup admits the request; a broken durable store is a
	// worse outage than temporarily unmetered traffic.
	Admit(ctx context.Context, tenantID uuid.UUID, sourceAddress, route string) error

	// AdmitAddress checks only the per-address window. Used on routes that
	// run before authentication, where no tenant is known yet.
	AdmitAddress(ctx context.Context, sourceAddress, route string) error
}
