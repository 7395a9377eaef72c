package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const denyKeyPrefix = "deny:"

// revocationUseCase implements RevocationUseCase.
type revocationUseCase struct {
	principalRepo PrincipalVersionRepository
	denyList      DenyListStore
	denyTTL       time.Duration
	logger        *slog.Logger
}

func (r *revocationUseCase) CurrentVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	return r.principalRepo.CurrentVersion(ctx, principalID)
}

func (r *revocationUseCase) BumpVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	version, err := r.principalRepo.BumpVersion(ctx, principalID)
	if err != nil {
		return 0, err
	}

	r.logger.Info("session version bumped",
		slog.String("principal_id", principalID.String()),
		slog.Int64("session_version", version),
	)
	return version, nil
}

// denyEntry is the deny-list value: why the token was denied and when.
type denyEntry struct {
	Reason   string    `json:"reason"`
	DeniedAt time.Time `json:"denied_at"`
}

func (r *revocationUseCase) Deny(ctx context.Context, tokenID uuid.UUID, reason string) error {
	entry, err := json.Marshal(denyEntry{Reason: reason, DeniedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := r.denyList.Set(ctx, denyKeyPrefix+tokenID.String(), string(entry), r.denyTTL); err != nil {
		return err
	}

	r.logger.Info("token denied",
		slog.String("token_id", tokenID.String()),
		slog.String("reason", reason),
	)
	return nil
}

func (r *revocationUseCase) IsDenied(ctx context.Context, tokenID uuid.UUID) bool {
	_, found, err := r.denyList.Get(ctx, denyKeyPrefix+tokenID.String())
	if err != nil {
		// Fail open: an unreachable deny list must not lock out the whole
		// platform. The version check remains in force.
		r.logger.Warn("deny list lookup failed, treating token as usable",
			slog.String("token_id", tokenID.String()),
			slog.Any("error", err),
		)
		return false
	}
	return found
}

// NewRevocationUseCase creates a new RevocationUseCase. denyTTL must be at
// least the longest credential lifetime the issuer hands out.
func NewRevocationUseCase(
	principalRepo PrincipalVersionRepository,
	denyList DenyListStore,
	denyTTL time.Duration,
	logger *slog.Logger,
) RevocationUseCase {
	return &revocationUseCase{
		principalRepo: principalRepo,
		denyList:      denyList,
		denyTTL:       denyTTL,
		logger:        logger,
	}
}
