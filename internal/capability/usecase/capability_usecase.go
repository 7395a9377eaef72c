package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	capabilityDomain "github.com/opentab/gatekeeper/internal/capability/domain"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

const defaultAuditListLimit = 100

// capabilityUseCase implements CapabilityUseCase.
type capabilityUseCase struct {
	auditRepo AuditRepository
	logger    *slog.Logger
}

func (c *capabilityUseCase) Authorize(ctx context.Context, input *AuthorizeInput) error {
	if !input.Action.Known() {
		return capabilityDomain.ErrUnknownAction
	}

	decision := capabilityDomain.DecisionDeny
	if input.Action.Permits(input.Principal.Tier) {
		decision = capabilityDomain.DecisionAllow
	}

	c.writeAudit(ctx, input, decision)

	if decision == capabilityDomain.DecisionDeny {
		requiredTier, exclusive, _ := input.Action.RequiredTier()
		c.logger.Warn("capability denied",
			slog.String("actor_id", input.Principal.ID.String()),
			slog.String("actor_tier", input.Principal.Tier.String()),
			slog.String("action", string(input.Action)),
			slog.String("required_tier", requiredTier.String()),
			slog.Bool("owner_exclusive", exclusive),
		)
		return apperrors.Wrapf(capabilityDomain.ErrInsufficientTier,
			"action %q requires tier %s", input.Action, requiredTier)
	}
	return nil
}

// writeAudit appends the decision to the trail. Failures are logged, never
// propagated: a broken audit store must not flip an authorization decision.
func (c *capabilityUseCase) writeAudit(
	ctx context.Context,
	input *AuthorizeInput,
	decision capabilityDomain.Decision,
) {
	entry := &capabilityDomain.AuditEntry{
		ID:            uuid.Must(uuid.NewV7()),
		ActorID:       input.Principal.ID,
		ActorTier:     input.Principal.Tier.String(),
		TenantID:      input.Principal.TenantID,
		BranchID:      input.Principal.BranchID,
		Action:        input.Action,
		Decision:      decision,
		ResourceID:    input.ResourceID,
		CorrelationID: input.CorrelationID,
		BeforeState:   input.BeforeState,
		AfterState:    input.AfterState,
		CreatedAt:     time.Now().UTC(),
	}

	if err := c.auditRepo.Append(ctx, entry); err != nil {
		c.logger.Error("failed to append audit entry",
			slog.String("actor_id", entry.ActorID.String()),
			slog.String("action", string(entry.Action)),
			slog.String("decision", string(entry.Decision)),
			slog.Any("error", err),
		)
	}
}

func (c *capabilityUseCase) ListAuditEntries(
	ctx context.Context,
	tenantID uuid.UUID,
	limit int,
) ([]*capabilityDomain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	return c.auditRepo.ListByTenant(ctx, tenantID, limit)
}

// NewCapabilityUseCase creates a new CapabilityUseCase.
func NewCapabilityUseCase(auditRepo AuditRepository, logger *slog.Logger) CapabilityUseCase {
	return &capabilityUseCase{auditRepo: auditRepo, logger: logger}
}
