package docs

import (
	"context"
	"path"
	"strings"

	"github.com/localseek/localseek/internal/db"
)

// mockStore is a map-backed implementation of the consumer interface.
type mockStore struct {
	hashes        map[string]map[string]string
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func newMockStore() *mockStore {
	return &mockStore{hashes: map[string]map[string]string{}}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for key := range m.hashes {
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

// matchPattern approximates Redis glob matching for test keys.
func matchPattern(pattern, key string) bool {
	// path.Match does not cross "/" with "*", so swap separators.
	p := strings.ReplaceAll(pattern, "/", "\x00")
	k := strings.ReplaceAll(key, "/", "\x00")
	ok, err := path.Match(p, k)
	return err == nil && ok
}
