package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sessionDomain "github.com/opentab/gatekeeper/internal/session/domain"
	sessionUseCase "github.com/opentab/gatekeeper/internal/session/usecase"
)

// mockSessionUseCase is a local mock for the session use case.
type mockSessionUseCase struct {
	mock.Mock
}

func (m *mockSessionUseCase) Create(
	ctx context.Context,
	input *sessionDomain.CreateSessionInput,
) (*sessionDomain.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Validate(
	ctx context.Context,
	sessionID uuid.UUID,
) (*sessionUseCase.ValidationResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionUseCase.ValidationResult), args.Error(1)
}

func (m *mockSessionUseCase) Touch(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockSessionUseCase) Revoke(
	ctx context.Context,
	sessionID uuid.UUID,
	actor *uuid.UUID,
	reason string,
) error {
	args := m.Called(ctx, sessionID, actor, reason)
	return args.Error(0)
}

func (m *mockSessionUseCase) RevokeAllForPrincipal(
	ctx context.Context,
	principalID uuid.UUID,
	actor *uuid.UUID,
	reason string,
) (int64, error) {
	args := m.Called(ctx, principalID, actor, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionUseCase) ListActive(
	ctx context.Context,
	principalID uuid.UUID,
) ([]*sessionDomain.Session, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Sweep(
	ctx context.Context,
	retention time.Duration,
	batchSize int,
) (int64, error) {
	args := m.Called(ctx, retention, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

func TestRunSweepSessions(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}
		mockUC.On("Sweep", ctx, 30*24*time.Hour, 500).Return(int64(42), nil)

		var out bytes.Buffer
		err := RunSweepSessions(ctx, mockUC, logger, &out, 30, 500, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Reclaimed 42 session(s)")
		mockUC.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}
		mockUC.On("Sweep", ctx, 7*24*time.Hour, 100).Return(int64(7), nil)

		var out bytes.Buffer
		err := RunSweepSessions(ctx, mockUC, logger, &out, 7, 100, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"count": 7`)
		require.Contains(t, out.String(), `"retention_days": 7`)
		mockUC.AssertExpectations(t)
	})

	t.Run("invalid-retention", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}
		err := RunSweepSessions(ctx, mockUC, logger, &bytes.Buffer{}, -1, 500, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "retention-days must be a positive number")
	})

	t.Run("invalid-batch-size", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}
		err := RunSweepSessions(ctx, mockUC, logger, &bytes.Buffer{}, 30, 0, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "batch-size must be a positive number")
	})
}
