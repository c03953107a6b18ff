package ingest

import (
	"context"
	"sort"

	"github.com/localseek/localseek/internal/domain"
)

// mockRepo is an in-memory Repository.
type mockRepo struct {
	collections map[string]domain.Collection
	documents   map[string]map[string]domain.Document // collection -> path -> doc

	creates int
	updates int
	upserts int
	deletes int

	err error // when set, every call fails
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		collections: make(map[string]domain.Collection),
		documents:   make(map[string]map[string]domain.Document),
	}
}

func (m *mockRepo) EnsureIndex(_ context.Context) error { return m.err }

func (m *mockRepo) CreateCollection(_ context.Context, col domain.Collection) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.collections[col.Name]; ok {
		return domain.ErrCollectionExists
	}
	m.collections[col.Name] = col
	m.creates++
	return nil
}

func (m *mockRepo) UpdateCollection(_ context.Context, col domain.Collection) error {
	if m.err != nil {
		return m.err
	}
	existing := m.collections[col.Name]
	col.DocCount = existing.DocCount
	m.collections[col.Name] = col
	m.updates++
	return nil
}

func (m *mockRepo) GetCollection(_ context.Context, name string) (domain.Collection, error) {
	if m.err != nil {
		return domain.Collection{}, m.err
	}
	col, ok := m.collections[name]
	if !ok {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return col, nil
}

func (m *mockRepo) ListCollections(_ context.Context) ([]domain.Collection, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Collection, 0, len(m.collections))
	for _, col := range m.collections {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) DeleteCollection(_ context.Context, name string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.collections[name]; !ok {
		return 0, domain.ErrCollectionNotFound
	}
	n := len(m.documents[name])
	delete(m.collections, name)
	delete(m.documents, name)
	return n, nil
}

func (m *mockRepo) UpsertDocument(_ context.Context, doc domain.Document) error {
	if m.err != nil {
		return m.err
	}
	if m.documents[doc.Collection] == nil {
		m.documents[doc.Collection] = make(map[string]domain.Document)
	}
	m.documents[doc.Collection][doc.Path] = doc
	m.upserts++
	return nil
}

func (m *mockRepo) DeleteDocument(_ context.Context, collection, path string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.documents[collection], path)
	m.deletes++
	return nil
}

func (m *mockRepo) DocumentHashes(_ context.Context, collection string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	hashes := make(map[string]string, len(m.documents[collection]))
	for path, doc := range m.documents[collection] {
		hashes[path] = doc.Hash
	}
	return hashes, nil
}

func (m *mockRepo) SetDocCount(_ context.Context, name string, count int) error {
	if m.err != nil {
		return m.err
	}
	col := m.collections[name]
	col.DocCount = count
	m.collections[name] = col
	return nil
}

func (m *mockRepo) TotalIndexed(_ context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	total := 0
	for _, docs := range m.documents {
		total += len(docs)
	}
	return total, nil
}

type mockClearer struct {
	n     int
	err   error
	calls int
}

func (m *mockClearer) Clear(_ context.Context) (int, error) {
	m.calls++
	return m.n, m.err
}
