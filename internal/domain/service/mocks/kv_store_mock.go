package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockKeyValueStore is a mock implementation of service.KeyValueStore
type MockKeyValueStore struct {
	mock.Mock
}

func (m *MockKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKeyValueStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockKeyValueStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	args := m.Called(ctx, keys)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKeyValueStore) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKeyValueStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

func (m *MockKeyValueStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(time.Duration), args.Bool(1), args.Error(2)
}

func (m *MockKeyValueStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	args := m.Called(ctx, cursor, match, count)
	var keys []string
	if args.Get(0) != nil {
		keys = args.Get(0).([]string)
	}
	return keys, args.Get(1).(uint64), args.Error(2)
}

func (m *MockKeyValueStore) FlushAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockKeyValueStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
