package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opentab/gatekeeper/internal/cache"
	principalDomain "github.com/opentab/gatekeeper/internal/principal/domain"
)

type mockPrincipalVersionRepository struct {
	mock.Mock
}

func (m *mockPrincipalVersionRepository) CurrentVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPrincipalVersionRepository) BumpVersion(
	ctx context.Context,
	principalID uuid.UUID,
) (int64, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(int64), args.Error(1)
}

// failingDenyList fails every operation, simulating a cache outage.
type failingDenyList struct{}

func (f *failingDenyList) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, assert.AnError
}

func (f *failingDenyList) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return assert.AnError
}

func newTestRevocationUseCase(repo PrincipalVersionRepository, store DenyListStore) RevocationUseCase {
	return NewRevocationUseCase(repo, store, 24*time.Hour, slog.New(slog.DiscardHandler))
}

func TestRevocationUseCase_BumpVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		principalID := uuid.Must(uuid.NewV7())
		repo.On("BumpVersion", ctx, principalID).Return(int64(8), nil)

		useCase := newTestRevocationUseCase(repo, cache.NewMemoryStore())
		version, err := useCase.BumpVersion(ctx, principalID)
		require.NoError(t, err)
		assert.Equal(t, int64(8), version)
	})

	t.Run("Error_UnknownPrincipal", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		principalID := uuid.Must(uuid.NewV7())
		repo.On("BumpVersion", ctx, principalID).Return(int64(0), principalDomain.ErrPrincipalNotFound)

		useCase := newTestRevocationUseCase(repo, cache.NewMemoryStore())
		_, err := useCase.BumpVersion(ctx, principalID)
		assert.ErrorIs(t, err, principalDomain.ErrPrincipalNotFound)
	})
}

func TestRevocationUseCase_DenyList(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_DeniedTokenIsReported", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		store := cache.NewMemoryStore()
		useCase := newTestRevocationUseCase(repo, store)

		tokenID := uuid.Must(uuid.NewV7())
		require.NoError(t, useCase.Deny(ctx, tokenID, "logout"))

		assert.True(t, useCase.IsDenied(ctx, tokenID))
		assert.False(t, useCase.IsDenied(ctx, uuid.Must(uuid.NewV7())))
	})

	t.Run("Success_EntryCarriesReasonAndTimestamp", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		store := cache.NewMemoryStore()
		useCase := newTestRevocationUseCase(repo, store)

		tokenID := uuid.Must(uuid.NewV7())
		before := time.Now().UTC()
		require.NoError(t, useCase.Deny(ctx, tokenID, "credential-compromised"))

		raw, found, err := store.Get(ctx, "deny:"+tokenID.String())
		require.NoError(t, err)
		require.True(t, found)

		var entry struct {
			Reason   string    `json:"reason"`
			DeniedAt time.Time `json:"denied_at"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &entry))
		assert.Equal(t, "credential-compromised", entry.Reason)
		assert.False(t, entry.DeniedAt.Before(before))
		assert.False(t, entry.DeniedAt.After(time.Now().UTC()))
	})

	t.Run("Success_DenyIsIdempotent", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		store := cache.NewMemoryStore()
		useCase := newTestRevocationUseCase(repo, store)

		tokenID := uuid.Must(uuid.NewV7())
		require.NoError(t, useCase.Deny(ctx, tokenID, "logout"))
		require.NoError(t, useCase.Deny(ctx, tokenID, "credential-compromised"))
		assert.True(t, useCase.IsDenied(ctx, tokenID))
	})

	t.Run("Success_StoreOutageFailsOpen", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		useCase := newTestRevocationUseCase(repo, &failingDenyList{})

		assert.False(t, useCase.IsDenied(ctx, uuid.Must(uuid.NewV7())))
	})

	t.Run("Error_DenyFailsWhenStoreDown", func(t *testing.T) {
		repo := &mockPrincipalVersionRepository{}
		useCase := newTestRevocationUseCase(repo, &failingDenyList{})

		err := useCase.Deny(ctx, uuid.Must(uuid.NewV7()), "logout")
		assert.Error(t, err)
	})
}
