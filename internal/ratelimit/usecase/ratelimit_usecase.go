package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// rateLimitUseCase implements RateLimitUseCase.
type rateLimitUseCase struct {
	planRepo          PlanRepository
	windows           WindowStore
	window            time.Duration
	perAddressCeiling int64
	logger            *slog.Logger
}

func (r *rateLimitUseCase) Admit(
	ctx context.Context,
	tenantID uuid.UUID,
	sourceAddress, route string,
) error {
	ceiling := r.tenantCeiling(ctx, tenantID)

	tenantKey := fmt.Sprintf("ratelimit:tenant:%s:%s", tenantID, route)
	if err := r.checkWindow(ctx, tenantKey, ceiling); err != nil {
		return err
	}

	addressKey := fmt.Sprintf("ratelimit:addr:%s:%s", sourceAddress, route)
	return r.checkWindow(ctx, addressKey, r.perAddressCeiling)
}

func (r *rateLimitUseCase) AdmitAddress(ctx context.Context, sourceAddress, route string) error {
	addressKey := fmt.Sprintf("ratelimit:addr:%s:%s", sourceAddress, route)
	return r.checkWindow(ctx, addressKey, r.perAddressCeiling)
}

// tenantCeiling resolves the tenant's plan ceiling, falling back to the
// premium ceiling when the lookup fails. Fail open: a broken plan store must
// not reject traffic.
func (r *rateLimitUseCase) tenantCeiling(ctx context.Context, tenantID uuid.UUID) int64 {
	plan, err := r.planRepo.GetPlan(ctx, tenantID)
	if err != nil {
		r.logger.Warn("plan lookup failed, admitting without tenant quota",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err),
		)
		return math.MaxInt64
	}
	return plan.RequestCeiling()
}

func (r *rateLimitUseCase) checkWindow(ctx context.Context, key string, ceiling int64) error {
	count, remaining, err := r.windows.IncrementWindow(ctx, key, r.window)
	if err != nil {
		// The counter store has its own local fallback; if even that fails,
		// admit rather than turn a cache outage into a full outage.
		r.logger.Warn("rate-limit counter unavailable, admitting",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return nil
	}

	if count > ceiling {
		retryAfter := int(math.Ceil(remaining.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &apperrors.RateLimitError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// noopRateLimitUseCase admits everything. Used when rate limiting is disabled.
type noopRateLimitUseCase struct{}

func (n *noopRateLimitUseCase) Admit(ctx context.Context, tenantID uuid.UUID, sourceAddress, route string) error {
	return nil
}

func (n *noopRateLimitUseCase) AdmitAddress(ctx context.Context, sourceAddress, route string) error {
	return nil
}

// NewNoOpRateLimitUseCase creates a RateLimitUseCase that admits every request.
func NewNoOpRateLimitUseCase() RateLimitUseCase {
	return &noopRateLimitUseCase{}
}

// NewRateLimitUseCase creates a new RateLimitUseCase. window is the length of
// each counting window; perAddressCeiling is the flat ceiling applied to every
// source address regardless of plan.
func NewRateLimitUseCase(
	planRepo PlanRepository,
	windows WindowStore,
	window time.Duration,
	perAddressCeiling int64,
	logger *slog.Logger,
) RateLimitUseCase {
	return &rateLimitUseCase{
		planRepo:          planRepo,
		windows:           windows,
		window:            window,
		perAddressCeiling: perAddressCeiling,
		logger:            logger,
	}
}
