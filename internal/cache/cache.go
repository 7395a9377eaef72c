// Package cache provides the shared ephemeral store used for deny-list entries,
// webhook replay records, rate-limit counters, and revocation broadcasts.
//
// The store is normally backed by Redis and shared across all server instances.
// A process-local fallback keeps the authorization path available when Redis is
// unreachable, at the cost of cross-instance consistency; that degradation is
// surfaced through Healthy(), never hidden.
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with TTL semantics, atomic window counters,
// set-if-absent, and pub/sub.
//
// All operations must be bounded by the caller's context; implementations never
// retry internally.
type Store interface {
	// Get returns the value for key. The second return value is false when the
	// key does not exist or has expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with the given TTL. A zero TTL stores the key
	// without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetIfAbsent stores value under key only when the key does not already
	// exist. Returns true when the value was stored.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// IncrementWindow atomically increments the counter under key, starting a
	// new window with the given length when the key does not exist. Returns the
	// post-increment count and the remaining window duration. The increment and
	// expiry are a single atomic operation at the store level, never a
	// read-modify-write.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

	// Publish sends payload to all subscribers of channel.
	Publish(ctx context.Context, channel, payload string) error

	// Subscribe delivers messages published to channel until ctx is cancelled.
	// The returned channel is closed when the subscription ends.
	Subscribe(ctx context.Context, channel string) (<-chan string, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// HealthReporter is implemented by stores that can degrade. Healthy returns
// false while the store is serving from a process-local fallback that is not
// shared across instances.
type HealthReporter interface {
	Healthy() bool
}
