package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/opentab/gatekeeper/internal/auth/domain"
	authService "github.com/opentab/gatekeeper/internal/auth/service"
	apperrors "github.com/opentab/gatekeeper/internal/errors"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// touchTimeout bounds the async last-activity write.
const touchTimeout = 2 * time.Second

// authUseCase implements AuthUseCase.
type authUseCase struct {
	principalRepo PrincipalRepository
	sessions      SessionManager
	revoker       Revoker
	credentials   authService.CredentialService
	passwords     authService.PasswordService
	logger        *slog.Logger
}

func (a *authUseCase) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	principal, err := a.principalRepo.GetByLogin(ctx, input.Login)
	if err != nil {
		// Hide whether the login exists.
		return nil, principalDomain.ErrInvalidCredentials
	}
	if !principal.IsActive {
		return nil, principalDomain.ErrPrincipalInactive
	}
	if !a.passwords.Compare(input.Password, principal.CredentialHash) {
		return nil, principalDomain.ErrInvalidCredentials
	}

	tokenID := uuid.Must(uuid.NewV7())
	session, err := a.sessions.Create(ctx, &sessionDomain.CreateSessionInput{
		PrincipalID: principal.ID,
		TenantID:    principal.TenantID,
		Platform:    input.Platform,
		Source:      input.Source,
		TokenID:     tokenID,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
	})
	if err != nil {
		return nil, err
	}

	token, err := a.credentials.Issue(&authService.IssueInput{
		Principal: principal,
		SessionID: session.ID,
		TokenID:   tokenID,
		Platform:  session.Platform,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("login succeeded",
		slog.String("principal_id", principal.ID.String()),
		slog.String("platform", string(session.Platform)),
		slog.String("source", string(session.Source)),
	)

	return &LoginOutput{Token: token, Session: session, Principal: principal}, nil
}

func (a *authUseCase) Authenticate(ctx context.Context, bearerToken string) (*Identity, error) {
	claims, err := a.credentials.Verify(bearerToken)
	if err != nil {
		return nil, err
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		return nil, authDomain.ErrInvalidCredential
	}
	tokenID, err := claims.TokenID()
	if err != nil {
		return nil, authDomain.ErrInvalidCredential
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, authDomain.ErrInvalidCredential
	}

	// Version check. Rejects on any evaluation error; there is no backstop
	// for a credential issued before a bulk revocation.
	currentVersion, err := a.revoker.CurrentVersion(ctx, principalID)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, err
	}
	if claims.SessionVersion != currentVersion {
		return nil, authDomain.ErrVersionMismatch
	}

	// Deny-list check. Fails open inside IsDenied; the version check above
	// already holds.
	if a.revoker.IsDenied(ctx, tokenID) {
		return nil, authDomain.ErrTokenDenied
	}

	result, err := a.sessions.Validate(ctx, sessionID)
	if err != nil {
		// A credential referencing a swept or absent session row is an
		// invalid credential, not a missing resource.
		if apperrors.Is(err, sessionDomain.ErrSessionNotFound) {
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, err
	}
	if result.ShouldTouch {
		a.touchAsync(ctx, sessionID)
	}

	principal, err := a.principalRepo.Get(ctx, principalID)
	if err != nil {
		if apperrors.Is(err, principalDomain.ErrPrincipalNotFound) {
			return nil, authDomain.ErrInvalidCredential
		}
		return nil, err
	}
	if !principal.IsActive {
		return nil, principalDomain.ErrPrincipalInactive
	}

	return &Identity{
		Principal: principal,
		Claims:    claims,
		SessionID: sessionID,
		TokenID:   tokenID,
		Platform:  claims.SessionPlatform(),
	}, nil
}

// touchAsync updates last-activity without blocking the request. A lost touch
// only shortens perceived idle tolerance, never breaks authorization.
func (a *authUseCase) touchAsync(ctx context.Context, sessionID uuid.UUID) {
	detached := context.WithoutCancel(ctx)
	go func() {
		touchCtx, cancel := context.WithTimeout(detached, touchTimeout)
		defer cancel()
		if err := a.sessions.Touch(touchCtx, sessionID); err != nil {
			a.logger.Warn("session touch failed",
				slog.String("session_id", sessionID.String()),
				slog.Any("error", err),
			)
		}
	}()
}

func (a *authUseCase) Logout(ctx context.Context, identity *Identity) error {
	if err := a.sessions.Revoke(ctx, identity.SessionID, &identity.Principal.ID, sessionDomain.ReasonLogout); err != nil {
		return err
	}
	if err := a.revoker.Deny(ctx, identity.TokenID, sessionDomain.ReasonLogout); err != nil {
		// The session is already revoked; the deny-list write is a
		// propagation fast path, not the source of truth.
		a.logger.Warn("deny-list write failed during logout",
			slog.String("token_id", identity.TokenID.String()),
			slog.Any("error", err),
		)
	}
	return nil
}

func (a *authUseCase) LogoutEverywhere(ctx context.Context, identity *Identity) (int64, error) {
	if _, err := a.revoker.BumpVersion(ctx, identity.Principal.ID); err != nil {
		return 0, err
	}
	return a.sessions.RevokeAllForPrincipal(
		ctx, identity.Principal.ID, &identity.Principal.ID, sessionDomain.ReasonLogoutAll,
	)
}

func (a *authUseCase) RevokePrincipalSessions(
	ctx context.Context,
	actor *Identity,
	targetID uuid.UUID,
) (int64, error) {
	// Existence check so callers get a 404 instead of a silent zero.
	if _, err := a.principalRepo.Get(ctx, targetID); err != nil {
		return 0, err
	}
	if _, err := a.revoker.BumpVersion(ctx, targetID); err != nil {
		return 0, err
	}

	affected, err := a.sessions.RevokeAllForPrincipal(
		ctx, targetID, &actor.Principal.ID, sessionDomain.ReasonAdmin,
	)
	if err != nil {
		return 0, err
	}

	a.logger.Info("principal sessions revoked by administrator",
		slog.String("target_principal_id", targetID.String()),
		slog.String("actor_principal_id", actor.Principal.ID.String()),
		slog.Int64("revoked_sessions", affected),
	)
	return affected, nil
}

func (a *authUseCase) ListSessions(
	ctx context.Context,
	principalID uuid.UUID,
) ([]*sessionDomain.Session, error) {
	return a.sessions.ListActive(ctx, principalID)
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	principalRepo PrincipalRepository,
	sessions SessionManager,
	revoker Revoker,
	credentials authService.CredentialService,
	passwords authService.PasswordService,
	logger *slog.Logger,
) AuthUseCase {
	return &authUseCase{
		principalRepo: principalRepo,
		sessions:      sessions,
		revoker:       revoker,
		credentials:   credentials,
		passwords:     passwords,
		logger:        logger,
	}
}
