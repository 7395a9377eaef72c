package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memoryEntry holds a value with an optional absolute expiry.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// expired reports whether the entry is past its expiry at now.
func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store with process-local maps. It backs tests and the
// degraded mode of FailoverStore. State is NOT shared across server instances.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]memoryEntry
	subscribers map[string][]chan string

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]memoryEntry),
		subscribers: make(map[string][]chan string),
		now:         time.Now,
	}
}

// SetClock replaces the store's clock. Test helper.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the value for key, with existence flag.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if entry.expired(s.now()) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = s.newEntry(value, ttl)
	return nil
}

// SetIfAbsent stores value under key only when absent.
func (s *MemoryStore) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok && !entry.expired(s.now()) {
		return false, nil
	}
	s.entries[key] = s.newEntry(value, ttl)
	return true, nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// IncrementWindow atomically increments the window counter under key. The
// mutex makes the increment-and-expire race-free inside the process.
func (s *MemoryStore) IncrementWindow(
	_ context.Context,
	key string,
	window time.Duration,
) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || entry.expired(now) {
		s.entries[key] = memoryEntry{value: "1", expiresAt: now.Add(window)}
		return 1, window, nil
	}

	count, _ := strconv.ParseInt(entry.value, 10, 64)
	count++
	entry.value = strconv.FormatInt(count, 10)
	s.entries[key] = entry
	return count, entry.expiresAt.Sub(now), nil
}

// Publish sends payload to all subscribers of channel.
func (s *MemoryStore) Publish(_ context.Context, channel, payload string) error {
	s.mu.Lock()
	subs := make([]chan string, len(s.subscribers[channel]))
	copy(subs, s.subscribers[channel])
	s.mu.Unlock()

	for _, sub := range subs {
		// Drop rather than block: local pub/sub is advisory.
		select {
		case sub <- payload:
		default:
		}
	}
	return nil
}

// Subscribe delivers messages published to channel until ctx is cancelled.
func (s *MemoryStore) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	sub := make(chan string, 16)

	s.mu.Lock()
	s.subscribers[channel] = append(s.subscribers[channel], sub)
	s.mu.Unlock()

	messages := make(chan string)
	go func() {
		defer close(messages)
		defer s.unsubscribe(channel, sub)

		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-sub:
				select {
				case messages <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return messages, nil
}

// Ping always succeeds for the local store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close drops all entries and subscriptions.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	s.subscribers = make(map[string][]chan string)
	return nil
}

// newEntry builds an entry with the expiry derived from ttl. Callers must hold s.mu.
func (s *MemoryStore) newEntry(value string, ttl time.Duration) memoryEntry {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	return entry
}

// unsubscribe removes sub from the channel's subscriber list.
func (s *MemoryStore) unsubscribe(channel string, sub chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[channel]
	for i, candidate := range subs {
		if candidate == sub {
			s.subscribers[channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
