package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opentab/gatekeeper/internal/metrics"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (a *authUseCaseWithMetrics) record(
	ctx context.Context,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordOperation(ctx, "auth", operation, status)
	a.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Login records metrics for credential verification and session creation.
func (a *authUseCaseWithMetrics) Login(
	ctx context.Context,
	input *LoginInput,
) (*LoginOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)
	a.record(ctx, "login", start, err)
	return output, err
}

// Authenticate records metrics for bearer token resolution.
func (a *authUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	bearerToken string,
) (*Identity, error) {
	start := time.Now()
	identity, err := a.next.Authenticate(ctx, bearerToken)
	a.record(ctx, "authenticate", start, err)
	return identity, err
}

// Logout records metrics for single-session logout.
func (a *authUseCaseWithMetrics) Logout(ctx context.Context, identity *Identity) error {
	start := time.Now()
	err := a.next.Logout(ctx, identity)
	a.record(ctx, "logout", start, err)
	return err
}

// LogoutEverywhere records metrics for global logout.
func (a *authUseCaseWithMetrics) LogoutEverywhere(
	ctx context.Context,
	identity *Identity,
) (int64, error) {
	start := time.Now()
	count, err := a.next.LogoutEverywhere(ctx, identity)
	a.record(ctx, "logout_everywhere", start, err)
	return count, err
}

// ListSessions records metrics for session listing.
func (a *authUseCaseWithMetrics) ListSessions(
	ctx context.Context,
	principalID uuid.UUID,
) ([]*sessionDomain.Session, error) {
	start := time.Now()
	sessions, err := a.next.ListSessions(ctx, principalID)
	a.record(ctx, "list_sessions", start, err)
	return sessions, err
}

// RevokePrincipalSessions records metrics for administrative revocation.
func (a *authUseCaseWithMetrics) RevokePrincipalSessions(
	ctx context.Context,
	actor *Identity,
	targetID uuid.UUID,
) (int64, error) {
	start := time.Now()
	count, err := a.next.RevokePrincipalSessions(ctx, actor, targetID)
	a.record(ctx, "revoke_principal_sessions", start, err)
	return count, err
}
