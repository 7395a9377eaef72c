package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
)

// mockRevocationUseCase is a local mock for the revocation use case.
type mockRevocationUseCase struct {
	mock.Mock
}

func (m *mockRevocationUseCase) CurrentVersion(ctx context.Context, principalID uuid.UUID) (int64, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRevocationUseCase) BumpVersion(ctx context.Context, principalID uuid.UUID) (int64, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRevocationUseCase) Deny(ctx context.Context, tokenID uuid.UUID, reason string) error {
	args := m.Called(ctx, tokenID, reason)
	return args.Error(0)
}

func (m *mockRevocationUseCase) IsDenied(ctx context.Context, tokenID uuid.UUID) bool {
	args := m.Called(ctx, tokenID)
	return args.Bool(0)
}

func TestRunRevokePrincipal(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	principalID := uuid.Must(uuid.NewV7())

	t.Run("text-output", func(t *testing.T) {
		mockRevocation := &mockRevocationUseCase{}
		mockSessions := &mockSessionUseCase{}
		mockRevocation.On("BumpVersion", ctx, principalID).Return(int64(5), nil)
		mockSessions.On("RevokeAllForPrincipal", ctx, principalID, (*uuid.UUID)(nil), sessionDomain.ReasonCredentialRisk).
			Return(int64(3), nil)

		var out bytes.Buffer
		err := RunRevokePrincipal(ctx, mockRevocation, mockSessions, logger, &out, principalID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "session version bumped to 5")
		require.Contains(t, out.String(), "3 session(s) revoked")
		mockRevocation.AssertExpectations(t)
		mockSessions.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockRevocation := &mockRevocationUseCase{}
		mockSessions := &mockSessionUseCase{}
		mockRevocation.On("BumpVersion", ctx, principalID).Return(int64(2), nil)
		mockSessions.On("RevokeAllForPrincipal", ctx, principalID, (*uuid.UUID)(nil), sessionDomain.ReasonCredentialRisk).
			Return(int64(1), nil)

		var out bytes.Buffer
		err := RunRevokePrincipal(ctx, mockRevocation, mockSessions, logger, &out, principalID.String(), "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"session_version": 2`)
		require.Contains(t, out.String(), `"revoked_sessions": 1`)
	})

	t.Run("invalid-id", func(t *testing.T) {
		mockRevocation := &mockRevocationUseCase{}
		mockSessions := &mockSessionUseCase{}

		err := RunRevokePrincipal(ctx, mockRevocation, mockSessions, logger, &bytes.Buffer{}, "not-a-uuid", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid principal id")
		mockRevocation.AssertNotCalled(t, "BumpVersion", mock.Anything, mock.Anything)
	})

	t.Run("bump-failure-stops-before-revocation", func(t *testing.T) {
		mockRevocation := &mockRevocationUseCase{}
		mockSessions := &mockSessionUseCase{}
		mockRevocation.On("BumpVersion", ctx, principalID).Return(int64(0), errors.New("db down"))

		err := RunRevokePrincipal(ctx, mockRevocation, mockSessions, logger, &bytes.Buffer{}, principalID.String(), "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to bump session version")
		mockSessions.AssertNotCalled(t, "RevokeAllForPrincipal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
