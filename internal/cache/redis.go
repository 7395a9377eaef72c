package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// incrWindowScript atomically increments a counter and arms its expiry when the
// counter is created. Returns the post-increment count and the remaining TTL in
// milliseconds.
var incrWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore implements Store backed by a shared Redis instance.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a RedisStore from a connection URL
// (e.g. "redis://localhost:6379/0").
func NewRedisStore(url, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse redis url")
	}
	if keyPrefix == "" {
		keyPrefix = "gatekeeper:"
	}
	return &RedisStore{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
	}, nil
}

// NewRedisStoreWithClient creates a RedisStore using an existing client.
// Used by tests that point at a shared test instance.
func NewRedisStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "gatekeeper:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the value for key, with existence flag.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrapf(err, "failed to get key %q", key)
	}
	return value, true, nil
}

// Set stores value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "failed to set key %q", key)
	}
	return nil
}

// SetIfAbsent stores value under key only when absent.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	stored, err := s.client.SetNX(ctx, s.keyPrefix+key, value, ttl).Result()
	if err != nil {
		return false, apperrors.Wrapf(err, "failed to setnx key %q", key)
	}
	return stored, nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return apperrors.Wrapf(err, "failed to delete key %q", key)
	}
	return nil
}

// IncrementWindow atomically increments the window counter under key.
func (s *RedisStore) IncrementWindow(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, time.Duration, error) {
	result, err := incrWindowScript.Run(
		ctx,
		s.client,
		[]string{s.keyPrefix + key},
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return 0, 0, apperrors.Wrapf(err, "failed to increment window %q", key)
	}
	count, _ := result[0].(int64)
	ttlMillis, _ := result[1].(int64)
	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}

// Publish sends payload to all subscribers of channel.
func (s *RedisStore) Publish(ctx context.Context, channel, payload string) error {
	if err := s.client.Publish(ctx, s.keyPrefix+channel, payload).Err(); err != nil {
		return apperrors.Wrapf(err, "failed to publish to channel %q", channel)
	}
	return nil
}

// Subscribe delivers messages published to channel until ctx is cancelled.
func (s *RedisStore) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	pubsub := s.client.Subscribe(ctx, s.keyPrefix+channel)

	// Confirm the subscription before returning so publishers observe it.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, apperrors.Wrapf(err, "failed to subscribe to channel %q", channel)
	}

	messages := make(chan string)
	go func() {
		defer close(messages)
		defer func() { _ = pubsub.Close() }()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case messages <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return messages, nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(err, "redis ping failed")
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
