package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// RevocationChannel is the pub/sub channel carrying session revocation events.
const RevocationChannel = "session.revoked"

// RevocationEvent is the payload broadcast when sessions are terminated.
// PrincipalID is always set; SessionID is empty for bulk revocations.
type RevocationEvent struct {
	SessionID   string `json:"session_id,omitempty"`
	PrincipalID string `json:"principal_id"`
	Reason      string `json:"reason"`
}

// sessionUseCase implements SessionUseCase.
type sessionUseCase struct {
	sessionRepo   SessionRepository
	publisher     EventPublisher
	touchThrottle time.Duration
	logger        *slog.Logger
}

// Create opens a new session with the platform policy's absolute lifetime.
func (s *sessionUseCase) Create(
	ctx context.Context,
	input *sessionDomain.CreateSessionInput,
) (*sessionDomain.Session, error) {
	now := time.Now().UTC()
	platform := input.Platform.Normalize()
	policy := sessionDomain.PolicyFor(platform)

	session := &sessionDomain.Session{
		ID:             uuid.Must(uuid.NewV7()),
		PrincipalID:    input.PrincipalID,
		TenantID:       input.TenantID,
		Platform:       platform,
		Source:         input.Source,
		TokenID:        input.TokenID,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(policy.MaxLifetime),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Validate checks the session state in reason-priority order. Idle detection
// revokes the session before reporting the failure, so a later validation of
// the same session fails with ErrSessionRevoked instead of re-triggering the
// side effect.
func (s *sessionUseCase) Validate(
	ctx context.Context,
	sessionID uuid.UUID,
) (*ValidationResult, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if session.Revoked() {
		return nil, sessionDomain.ErrSessionRevoked
	}

	if session.Expired(now) {
		return nil, sessionDomain.ErrSessionExpired
	}

	if session.Idle(now) {
		// Self-healing: the lazy check converts the stale session into a
		// permanently revoked one.
		if err := s.revokeAndBroadcast(ctx, session, nil, sessionDomain.ReasonIdleTimeout); err != nil {
			s.logger.Error("failed to revoke idle session",
				slog.String("session_id", session.ID.String()),
				slog.Any("error", err),
			)
		}
		return nil, sessionDomain.ErrSessionIdle
	}

	return &ValidationResult{
		Session:     session,
		ShouldTouch: session.ShouldTouch(now, s.touchThrottle),
	}, nil
}

// Touch unconditionally updates last-activity. Callers gate this behind the
// ShouldTouch hint from Validate.
func (s *sessionUseCase) Touch(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessionRepo.Touch(ctx, sessionID, time.Now().UTC())
}

// Revoke terminates a single session. Revoking an already revoked session is a
// no-op, not an error.
func (s *sessionUseCase) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	actor *uuid.UUID,
	reason string,
) error {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Revoked() {
		return nil
	}
	return s.revokeAndBroadcast(ctx, session, actor, reason)
}

// RevokeAllForPrincipal terminates every live session of the principal.
func (s *sessionUseCase) RevokeAllForPrincipal(
	ctx context.Context,
	principalID uuid.UUID,
	actor *uuid.UUID,
	reason string,
) (int64, error) {
	affected, err := s.sessionRepo.RevokeAllForPrincipal(ctx, principalID, time.Now().UTC(), actor, reason)
	if err != nil {
		return 0, err
	}

	if affected > 0 {
		s.broadcast(ctx, RevocationEvent{
			PrincipalID: principalID.String(),
			Reason:      reason,
		})
	}
	return affected, nil
}

// ListActive returns the principal's live sessions, newest activity first.
func (s *sessionUseCase) ListActive(
	ctx context.Context,
	principalID uuid.UUID,
) ([]*sessionDomain.Session, error) {
	return s.sessionRepo.ListActive(ctx, principalID, time.Now().UTC())
}

// Sweep reclaims storage for long-terminal sessions in batches.
func (s *sessionUseCase) Sweep(
	ctx context.Context,
	retention time.Duration,
	batchSize int,
) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	var total int64
	for {
		removed, err := s.sessionRepo.DeleteTerminatedBefore(ctx, cutoff, batchSize)
		if err != nil {
			return total, err
		}
		total += removed
		if removed < int64(batchSize) {
			return total, nil
		}
	}
}

// revokeAndBroadcast persists the revocation and publishes the event.
func (s *sessionUseCase) revokeAndBroadcast(
	ctx context.Context,
	session *sessionDomain.Session,
	actor *uuid.UUID,
	reason string,
) error {
	if err := s.sessionRepo.Revoke(ctx, session.ID, time.Now().UTC(), actor, reason); err != nil {
		return err
	}

	s.broadcast(ctx, RevocationEvent{
		SessionID:   session.ID.String(),
		PrincipalID: session.PrincipalID.String(),
		Reason:      reason,
	})
	return nil
}

// broadcast publishes a revocation event. Best-effort: a pub/sub failure never
// fails the revocation itself, but it is logged, not swallowed.
func (s *sessionUseCase) broadcast(ctx context.Context, event RevocationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal revocation event", slog.Any("error", err))
		return
	}
	if err := s.publisher.Publish(ctx, RevocationChannel, string(payload)); err != nil {
		s.logger.Error("failed to publish revocation event",
			slog.String("principal_id", event.PrincipalID),
			slog.Any("error", err),
		)
	}
}

// NewSessionUseCase creates a new SessionUseCase with the provided dependencies.
// touchThrottle is the operational minimum interval between last-activity
// writes; zero defers to the per-platform policy table.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	publisher EventPublisher,
	touchThrottle time.Duration,
	logger *slog.Logger,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo:   sessionRepo,
		publisher:     publisher,
		touchThrottle: touchThrottle,
		logger:        logger,
	}
}
