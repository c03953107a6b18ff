package querycache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	incrByFn func(ctx context.Context, key string, val int64) (int64, error)
	scanFn   func(ctx context.Context, pattern string) ([]string, error)
	delFn    func(ctx context.Context, key string) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	return val, nil
}

func (m *mockKVStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockKVStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCache(t *testing.T) (*Cache, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	c := New(ms, "localseek:", nil, zap.NewNop())
	return c, ms
}
