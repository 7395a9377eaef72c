// Package usecase implements session lifecycle orchestration: creation,
// validation with self-healing idle/expiry detection, touch throttling,
// revocation, and storage reclaim.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// SessionRepository defines persistence operations for session records.
// Implementations must support transaction-aware operations via context propagation.
type SessionRepository interface {
	// Create stores a new session in the repository.
	Create(ctx context.Context, session *sessionDomain.Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound if not found.
	Get(ctx context.Context, sessionID uuid.UUID) (*sessionDomain.Session, error)

	// Touch updates the session's last-activity timestamp. No-op on terminal sessions.
	Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	// Revoke marks the session terminal. Idempotent: revoking an already
	// revoked session affects zero rows and preserves the original metadata.
	Revoke(ctx context.Context, sessionID uuid.UUID, at time.Time, actor *uuid.UUID, reason string) error

	// RevokeAllForPrincipal marks every live session of the principal terminal.
	RevokeAllForPrincipal(
		ctx context.Context,
		principalID uuid.UUID,
		at time.Time,
		actor *uuid.UUID,
		reason string,
	) (int64, error)

	// ListActive returns the principal's live sessions, newest activity first.
	ListActive(ctx context.Context, principalID uuid.UUID, now time.Time) ([]*sessionDomain.Session, error)

	// DeleteTerminatedBefore removes up to limit sessions that became terminal
	// before the cutoff, returning how many rows were removed.
	DeleteTerminatedBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// EventPublisher broadcasts revocation events on the shared ephemeral store's
// pub/sub channel so interested consumers (e.g. open UI sessions) can react.
type EventPublisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// ValidationResult is the outcome of a successful session validation.
type ValidationResult struct {
	// Session is the validated session record.
	Session *sessionDomain.Session

	// ShouldTouch hints that the touch-throttle interval has elapsed and the
	// caller may schedule a low-priority last-activity update. Callers must
	// gate Touch behind this hint to avoid write storms on hot sessions.
	ShouldTouch bool
}

// SessionUseCase defines business logic operations for session lifecycle management.
type SessionUseCase interface {
	// Create opens a new session for a successful authentication. The absolute
	// expiry is derived from the platform policy. Multiple concurrent sessions
	// per principal are allowed by design.
	Create(
		ctx context.Context,
		input *sessionDomain.CreateSessionInput,
	) (*sessionDomain.Session, error)

	// Validate checks a session against its platform policy. Failure reasons in
	// priority order: not found, explicitly revoked, past absolute expiry, past
	// idle threshold.
	//
	// Validate is a side-effecting read: detecting an idle timeout revokes the
	// session, converting a lazy check into a permanent state transition. A
	// second validation of the same session sees the already-revoked state and
	// does not re-trigger side effects.
	Validate(ctx context.Context, sessionID uuid.UUID) (*ValidationResult, error)

	// Touch unconditionally updates the session's last-activity timestamp.
	Touch(ctx context.Context, sessionID uuid.UUID) error

	// Revoke terminates a single session. Idempotent.
	Revoke(ctx context.Context, sessionID uuid.UUID, actor *uuid.UUID, reason string) error

	// RevokeAllForPrincipal terminates every live session of the principal,
	// used on logout-everywhere and credential-compromise events. Returns the
	// number of revoked sessions.
	RevokeAllForPrincipal(
		ctx context.Context,
		principalID uuid.UUID,
		actor *uuid.UUID,
		reason string,
	) (int64, error)

	// ListActive returns the principal's live sessions, newest activity first.
	ListActive(ctx context.Context, principalID uuid.UUID) ([]*sessionDomain.Session, error)

	// Sweep reclaims storage for sessions that became terminal before
	// now-retention and were never re-validated. Returns the number of
	// sessions removed.
	Sweep(ctx context.Context, retention time.Duration, batchSize int) (int64, error)
}
