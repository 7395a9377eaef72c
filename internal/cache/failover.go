package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// FailoverStore wraps a shared primary store (Redis) and a process-local
// fallback. Every call is bounded by opTimeout so a degraded backend cannot
// stall the authorization path; on primary failure the call is retried against
// the fallback and the store reports unhealthy until the primary answers again.
//
// Operators must know that degraded mode loses cross-instance consistency:
// deny-list entries, replay records, and rate-limit counters written to the
// fallback are only visible to this process.
type FailoverStore struct {
	primary   Store
	fallback  Store
	opTimeout time.Duration
	logger    *slog.Logger

	// degraded is 1 while serving from the fallback.
	degraded atomic.Bool
	// probe throttles attempts against a degraded primary so every request
	// does not pay the primary timeout while Redis is down.
	probe *rate.Limiter
}

// NewFailoverStore creates a failover wrapper around primary with a local
// fallback. opTimeout bounds each primary call; it should stay in the low
// hundreds of milliseconds.
func NewFailoverStore(primary, fallback Store, opTimeout time.Duration, logger *slog.Logger) *FailoverStore {
	if opTimeout <= 0 {
		opTimeout = 200 * time.Millisecond
	}
	return &FailoverStore{
		primary:   primary,
		fallback:  fallback,
		opTimeout: opTimeout,
		logger:    logger,
		probe:     rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Healthy reports whether the primary store answered the most recent call.
func (s *FailoverStore) Healthy() bool {
	return !s.degraded.Load()
}

// primaryAvailable reports whether this call should attempt the primary.
// Healthy primaries are always attempted; degraded ones at most once per
// probe interval.
func (s *FailoverStore) primaryAvailable() bool {
	return !s.degraded.Load() || s.probe.Allow()
}

// Get returns the value for key, with existence flag.
func (s *FailoverStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if !s.primaryAvailable() {
		return s.fallback.Get(ctx, key)
	}
	value, found, err := s.primary.Get(ctx, key)
	if err != nil {
		s.markDegraded("get", err)
		return s.fallback.Get(ctx, key)
	}
	s.markHealthy()
	return value, found, nil
}

// Set stores value under key with the given TTL.
func (s *FailoverStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if !s.primaryAvailable() {
		return s.fallback.Set(ctx, key, value, ttl)
	}
	if err := s.primary.Set(ctx, key, value, ttl); err != nil {
		s.markDegraded("set", err)
		return s.fallback.Set(ctx, key, value, ttl)
	}
	s.markHealthy()
	return nil
}

// SetIfAbsent stores value under key only when absent.
func (s *FailoverStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if !s.primaryAvailable() {
		return s.fallback.SetIfAbsent(ctx, key, value, ttl)
	}
	stored, err := s.primary.SetIfAbsent(ctx, key, value, ttl)
	if err != nil {
		s.markDegraded("setnx", err)
		return s.fallback.SetIfAbsent(ctx, key, value, ttl)
	}
	s.markHealthy()
	return stored, nil
}

// Delete removes key from both stores so a failback cannot resurrect it.
func (s *FailoverStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	_ = s.fallback.Delete(ctx, key)
	if !s.primaryAvailable() {
		return nil
	}
	if err := s.primary.Delete(ctx, key); err != nil {
		s.markDegraded("delete", err)
		return nil
	}
	s.markHealthy()
	return nil
}

// IncrementWindow atomically increments the window counter under key.
func (s *FailoverStore) IncrementWindow(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if !s.primaryAvailable() {
		return s.fallback.IncrementWindow(ctx, key, window)
	}
	count, remaining, err := s.primary.IncrementWindow(ctx, key, window)
	if err != nil {
		s.markDegraded("incr", err)
		return s.fallback.IncrementWindow(ctx, key, window)
	}
	s.markHealthy()
	return count, remaining, nil
}

// Publish sends payload to subscribers of channel. Degraded publishes only
// reach subscribers in this process.
func (s *FailoverStore) Publish(ctx context.Context, channel, payload string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if !s.primaryAvailable() {
		return s.fallback.Publish(ctx, channel, payload)
	}
	if err := s.primary.Publish(ctx, channel, payload); err != nil {
		s.markDegraded("publish", err)
		return s.fallback.Publish(ctx, channel, payload)
	}
	s.markHealthy()
	return nil
}

// Subscribe delivers messages published to channel until ctx is cancelled.
// Subscriptions are long-lived, so the op timeout only bounds establishment.
func (s *FailoverStore) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	messages, err := s.primary.Subscribe(ctx, channel)
	if err != nil {
		s.markDegraded("subscribe", err)
		return s.fallback.Subscribe(ctx, channel)
	}
	s.markHealthy()
	return messages, nil
}

// Ping probes the primary store. Health checks bypass the probe throttle;
// they exist to detect recovery.
func (s *FailoverStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.primary.Ping(ctx); err != nil {
		s.markDegraded("ping", err)
		return err
	}
	s.markHealthy()
	return nil
}

// Close closes both stores.
func (s *FailoverStore) Close() error {
	fallbackErr := s.fallback.Close()
	if err := s.primary.Close(); err != nil {
		return err
	}
	return fallbackErr
}

// markDegraded records the transition into degraded mode, logging only on the
// edge to avoid log storms while the primary is down.
func (s *FailoverStore) markDegraded(op string, err error) {
	if s.degraded.CompareAndSwap(false, true) && s.logger != nil {
		s.logger.Warn("ephemeral store degraded to process-local fallback",
			slog.String("op", op),
			slog.Any("error", err),
		)
	}
}

// markHealthy records recovery of the primary store.
func (s *FailoverStore) markHealthy() {
	if s.degraded.CompareAndSwap(true, false) && s.logger != nil {
		s.logger.Info("ephemeral store recovered, primary healthy")
	}
}
