package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/genguard/internal/domain/service"
)

var _ service.KeyValueStore = (*KVStore)(nil)

// KVStore adapts a go-redis client to service.KeyValueStore. Errors are
// returned unchanged so callers can decide between failing open and closed.
type KVStore struct {
	client redis.UniversalClient
}

// NewKVStore wraps client.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

// Client exposes the underlying client for script evaluation.
func (s *KVStore) Client() redis.UniversalClient {
	return s.client
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}

func (s *KVStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *KVStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

// TTL maps the Redis -2 (missing) and -1 (no expiry) replies onto the
// (ttl, exists) pair.
func (s *KVStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	switch {
	case ttl == -2:
		return 0, false, nil
	case ttl < 0:
		return -1, true, nil
	default:
		return ttl, true, nil
	}
}

func (s *KVStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return s.client.Scan(ctx, cursor, match, count).Result()
}

// FlushAll empties the configured database only.
func (s *KVStore) FlushAll(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
