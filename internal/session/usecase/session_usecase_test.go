package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// mockSessionRepository is a mock implementation of SessionRepository for testing.
type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, session *sessionDomain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) Get(
	ctx context.Context,
	sessionID uuid.UUID,
) (*sessionDomain.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) Touch(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, sessionID, at)
	return args.Error(0)
}

func (m *mockSessionRepository) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) error {
	args := m.Called(ctx, sessionID, at, actor, reason)
	return args.Error(0)
}

func (m *mockSessionRepository) RevokeAllForPrincipal(
	ctx context.Context,
	principalID uuid.UUID,
	at time.Time,
	actor *uuid.UUID,
	reason string,
) (int64, error) {
	args := m.Called(ctx, principalID, at, actor, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepository) ListActive(
	ctx context.Context,
	principalID uuid.UUID,
	now time.Time,
) ([]*sessionDomain.Session, error) {
	args := m.Called(ctx, principalID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionRepository) DeleteTerminatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

// mockPublisher is a mock implementation of EventPublisher for testing.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channel, payload string) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

func newTestUseCase(repo SessionRepository, publisher EventPublisher) SessionUseCase {
	logger := slog.New(slog.DiscardHandler)
	return NewSessionUseCase(repo, publisher, time.Minute, logger)
}

func TestSessionUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PlatformPolicyDrivesExpiry", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}

		var created *sessionDomain.Session
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*sessionDomain.Session)
			}).
			Return(nil)

		useCase := newTestUseCase(repo, publisher)
		input := &sessionDomain.CreateSessionInput{
			PrincipalID: uuid.Must(uuid.NewV7()),
			TenantID:    uuid.Must(uuid.NewV7()),
			Platform:    sessionDomain.PlatformWebBackoffice,
			Source:      sessionDomain.SourcePassword,
			TokenID:     uuid.Must(uuid.NewV7()),
			IPAddress:   "203.0.113.7",
			UserAgent:   "backoffice/2.1",
		}

		session, err := useCase.Create(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, input.PrincipalID, session.PrincipalID)
		assert.Equal(t, sessionDomain.PlatformWebBackoffice, session.Platform)
		assert.WithinDuration(t, session.CreatedAt.Add(8*time.Hour), session.ExpiresAt, time.Second)
		assert.Nil(t, session.RevokedAt)
		repo.AssertExpectations(t)
	})

	t.Run("Success_UnknownPlatformGetsDefaultPolicy", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(nil)

		useCase := newTestUseCase(repo, publisher)
		session, err := useCase.Create(ctx, &sessionDomain.CreateSessionInput{
			PrincipalID: uuid.Must(uuid.NewV7()),
			TenantID:    uuid.Must(uuid.NewV7()),
			Platform:    sessionDomain.Platform("fax-machine"),
			Source:      sessionDomain.SourcePIN,
			TokenID:     uuid.Must(uuid.NewV7()),
		})
		require.NoError(t, err)

		assert.Equal(t, sessionDomain.PlatformUnknown, session.Platform)
		assert.WithinDuration(t, session.CreatedAt.Add(8*time.Hour), session.ExpiresAt, time.Second)
	})
}

func TestSessionUseCase_Validate(t *testing.T) {
	ctx := context.Background()

	liveSession := func() *sessionDomain.Session {
		now := time.Now().UTC()
		return &sessionDomain.Session{
			ID:             uuid.Must(uuid.NewV7()),
			PrincipalID:    uuid.Must(uuid.NewV7()),
			TenantID:       uuid.Must(uuid.NewV7()),
			Platform:       sessionDomain.PlatformWebBackoffice,
			CreatedAt:      now.Add(-time.Hour),
			LastActivityAt: now.Add(-time.Second),
			ExpiresAt:      now.Add(7 * time.Hour),
		}
	}

	t.Run("Success_FreshSessionNoTouchHint", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		result, err := useCase.Validate(ctx, session.ID)
		require.NoError(t, err)

		assert.Equal(t, session.ID, result.Session.ID)
		assert.False(t, result.ShouldTouch)
	})

	t.Run("Success_TouchHintAfterThrottleInterval", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		session.LastActivityAt = time.Now().UTC().Add(-2 * time.Minute)
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		result, err := useCase.Validate(ctx, session.ID)
		require.NoError(t, err)
		assert.True(t, result.ShouldTouch)
	})

	t.Run("Success_ConfiguredThrottleSuppressesTouchHint", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		session.LastActivityAt = time.Now().UTC().Add(-2 * time.Minute)
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := NewSessionUseCase(repo, publisher, 10*time.Minute, slog.New(slog.DiscardHandler))
		result, err := useCase.Validate(ctx, session.ID)
		require.NoError(t, err)
		assert.False(t, result.ShouldTouch)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		sessionID := uuid.Must(uuid.NewV7())
		repo.On("Get", ctx, sessionID).Return(nil, sessionDomain.ErrSessionNotFound)

		useCase := newTestUseCase(repo, publisher)
		_, err := useCase.Validate(ctx, sessionID)
		assert.ErrorIs(t, err, sessionDomain.ErrSessionNotFound)
	})

	t.Run("Error_RevokedWinsOverExpiry", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		revokedAt := time.Now().UTC().Add(-time.Hour)
		session.RevokedAt = &revokedAt
		session.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		_, err := useCase.Validate(ctx, session.ID)
		assert.ErrorIs(t, err, sessionDomain.ErrSessionRevoked)
	})

	t.Run("Error_PastAbsoluteExpiry", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		session.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		_, err := useCase.Validate(ctx, session.ID)
		assert.ErrorIs(t, err, sessionDomain.ErrSessionExpired)
	})

	t.Run("Error_IdleTimeoutRevokesSession", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		session.LastActivityAt = time.Now().UTC().Add(-31 * time.Minute)

		repo.On("Get", ctx, session.ID).Return(session, nil)
		repo.On(
			"Revoke", ctx, session.ID, mock.AnythingOfType("time.Time"),
			(*uuid.UUID)(nil), sessionDomain.ReasonIdleTimeout,
		).Return(nil)
		publisher.On("Publish", ctx, RevocationChannel, mock.AnythingOfType("string")).Return(nil)

		useCase := newTestUseCase(repo, publisher)
		_, err := useCase.Validate(ctx, session.ID)
		assert.ErrorIs(t, err, sessionDomain.ErrSessionIdle)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Error_SecondValidationSeesRevokedWithoutSideEffects", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := liveSession()
		revokedAt := time.Now().UTC()
		session.RevokedAt = &revokedAt
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		_, err := useCase.Validate(ctx, session.ID)
		assert.ErrorIs(t, err, sessionDomain.ErrSessionRevoked)
		// No Revoke, no Publish: side effects fired only on first detection.
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_Revoke(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RevokesAndBroadcasts", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: uuid.Must(uuid.NewV7()),
		}
		actor := uuid.Must(uuid.NewV7())

		repo.On("Get", ctx, session.ID).Return(session, nil)
		repo.On(
			"Revoke", ctx, session.ID, mock.AnythingOfType("time.Time"),
			&actor, sessionDomain.ReasonLogout,
		).Return(nil)
		publisher.On("Publish", ctx, RevocationChannel, mock.AnythingOfType("string")).Return(nil)

		useCase := newTestUseCase(repo, publisher)
		err := useCase.Revoke(ctx, session.ID, &actor, sessionDomain.ReasonLogout)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Success_SecondRevokeIsNoOp", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		revokedAt := time.Now().UTC()
		session := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: uuid.Must(uuid.NewV7()),
			RevokedAt:   &revokedAt,
		}
		repo.On("Get", ctx, session.ID).Return(session, nil)

		useCase := newTestUseCase(repo, publisher)
		err := useCase.Revoke(ctx, session.ID, nil, sessionDomain.ReasonLogout)
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_PublishFailureDoesNotFailRevocation", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		session := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: uuid.Must(uuid.NewV7()),
		}
		repo.On("Get", ctx, session.ID).Return(session, nil)
		repo.On(
			"Revoke", ctx, session.ID, mock.AnythingOfType("time.Time"),
			(*uuid.UUID)(nil), sessionDomain.ReasonAdmin,
		).Return(nil)
		publisher.On("Publish", ctx, RevocationChannel, mock.AnythingOfType("string")).
			Return(assert.AnError)

		useCase := newTestUseCase(repo, publisher)
		err := useCase.Revoke(ctx, session.ID, nil, sessionDomain.ReasonAdmin)
		assert.NoError(t, err)
	})
}

func TestSessionUseCase_RevokeAllForPrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_BroadcastsOnce", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		principalID := uuid.Must(uuid.NewV7())

		repo.On(
			"RevokeAllForPrincipal", ctx, principalID, mock.AnythingOfType("time.Time"),
			(*uuid.UUID)(nil), sessionDomain.ReasonLogoutAll,
		).Return(int64(3), nil)
		publisher.On("Publish", ctx, RevocationChannel, mock.AnythingOfType("string")).Return(nil)

		useCase := newTestUseCase(repo, publisher)
		affected, err := useCase.RevokeAllForPrincipal(ctx, principalID, nil, sessionDomain.ReasonLogoutAll)
		require.NoError(t, err)
		assert.Equal(t, int64(3), affected)
		publisher.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("Success_NoBroadcastWhenNothingRevoked", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}
		principalID := uuid.Must(uuid.NewV7())

		repo.On(
			"RevokeAllForPrincipal", ctx, principalID, mock.AnythingOfType("time.Time"),
			(*uuid.UUID)(nil), sessionDomain.ReasonLogoutAll,
		).Return(int64(0), nil)

		useCase := newTestUseCase(repo, publisher)
		affected, err := useCase.RevokeAllForPrincipal(ctx, principalID, nil, sessionDomain.ReasonLogoutAll)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionUseCase_Sweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LoopsUntilShortBatch", func(t *testing.T) {
		repo := &mockSessionRepository{}
		publisher := &mockPublisher{}

		repo.On("DeleteTerminatedBefore", ctx, mock.AnythingOfType("time.Time"), 100).
			Return(int64(100), nil).Once()
		repo.On("DeleteTerminatedBefore", ctx, mock.AnythingOfType("time.Time"), 100).
			Return(int64(17), nil).Once()

		useCase := newTestUseCase(repo, publisher)
		total, err := useCase.Sweep(ctx, 30*24*time.Hour, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(117), total)
		repo.AssertExpectations(t)
	})
}
