package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every operation, simulating an unreachable Redis.
type brokenStore struct {
	err error
}

func (b *brokenStore) Get(context.Context, string) (string, bool, error) { return "", false, b.err }
func (b *brokenStore) Set(context.Context, string, string, time.Duration) error {
	return b.err
}
func (b *brokenStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, b.err
}
func (b *brokenStore) Delete(context.Context, string) error { return b.err }
func (b *brokenStore) IncrementWindow(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, b.err
}
func (b *brokenStore) Publish(context.Context, string, string) error { return b.err }
func (b *brokenStore) Subscribe(context.Context, string) (<-chan string, error) {
	return nil, b.err
}
func (b *brokenStore) Ping(context.Context) error { return b.err }
func (b *brokenStore) Close() error               { return nil }

func newTestFailover(primary Store) *FailoverStore {
	logger := slog.New(slog.NewTextHandler(testWriter{}, nil))
	return NewFailoverStore(primary, NewMemoryStore(), 50*time.Millisecond, logger)
}

// testWriter discards log output.
type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestFailoverStore_HealthyPrimary(t *testing.T) {
	ctx := context.Background()
	store := newTestFailover(NewMemoryStore())

	require.NoError(t, store.Set(ctx, "key", "value", 0))
	value, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)
	assert.True(t, store.Healthy())
}

func TestFailoverStore_DegradesToFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestFailover(&brokenStore{err: errors.New("connection refused")})

	// Writes land in the fallback instead of failing.
	require.NoError(t, store.Set(ctx, "key", "value", 0))
	assert.False(t, store.Healthy())

	// Reads are served from the fallback.
	value, found, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", value)

	// Window counters keep working locally.
	count, _, err := store.IncrementWindow(ctx, "window", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Ping still reports the primary failure to callers.
	assert.Error(t, store.Ping(ctx))
}

func TestFailoverStore_RecoversWhenPrimaryReturns(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	broken := &brokenStore{err: errors.New("connection refused")}

	// Start degraded.
	store := newTestFailover(broken)
	require.NoError(t, store.Set(ctx, "key", "value", 0))
	assert.False(t, store.Healthy())

	// Swap in a healthy primary and observe recovery on the next call.
	store.primary = primary
	require.NoError(t, store.Ping(ctx))
	assert.True(t, store.Healthy())
}

func TestFailoverStore_SetIfAbsentFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestFailover(&brokenStore{err: errors.New("timeout")})

	stored, err := store.SetIfAbsent(ctx, "replay:abc", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = store.SetIfAbsent(ctx, "replay:abc", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, stored)
}

// countingStore wraps another store and counts Get attempts.
type countingStore struct {
	brokenStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.brokenStore.Get(ctx, key)
}

func TestFailoverStore_ThrottlesPrimaryProbes(t *testing.T) {
	ctx := context.Background()
	primary := &countingStore{brokenStore: brokenStore{err: errors.New("connection refused")}}
	store := newTestFailover(primary)

	// First call attempts the primary and degrades; the probe budget allows
	// one more attempt, everything after that is served locally.
	for i := 0; i < 5; i++ {
		_, _, err := store.Get(ctx, "key")
		require.NoError(t, err)
	}

	assert.False(t, store.Healthy())
	assert.LessOrEqual(t, primary.gets, 2)
}
