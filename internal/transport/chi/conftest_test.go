package chi

import (
	"context"
	"errors"
	"net/http"
	"sort"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	healthuc "github.com/localseek/localseek/internal/usecase/health"
	ingestuc "github.com/localseek/localseek/internal/usecase/ingest"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
)

type stubSearcher struct {
	results []domain.Candidate
	err     error
}

func (s *stubSearcher) Search(_ context.Context, _, _ string, _ int) ([]domain.Candidate, error) {
	return s.results, s.err
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

type stubStats struct {
	stats domain.MetricsStats
	err   error
}

func (s *stubStats) Stats(_ context.Context) (domain.MetricsStats, error) {
	return s.stats, s.err
}

type stubClearer struct {
	n int
}

func (s *stubClearer) Clear(_ context.Context) (int, error) { return s.n, nil }

// memRepo is an in-memory ingest repository for handler tests.
type memRepo struct {
	collections map[string]domain.Collection
	documents   map[string]map[string]domain.Document
}

func newMemRepo() *memRepo {
	return &memRepo{
		collections: make(map[string]domain.Collection),
		documents:   make(map[string]map[string]domain.Document),
	}
}

func (m *memRepo) EnsureIndex(_ context.Context) error { return nil }

func (m *memRepo) CreateCollection(_ context.Context, col domain.Collection) error {
	if _, ok := m.collections[col.Name]; ok {
		return domain.ErrCollectionExists
	}
	m.collections[col.Name] = col
	return nil
}

func (m *memRepo) UpdateCollection(_ context.Context, col domain.Collection) error {
	m.collections[col.Name] = col
	return nil
}

func (m *memRepo) GetCollection(_ context.Context, name string) (domain.Collection, error) {
	col, ok := m.collections[name]
	if !ok {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return col, nil
}

func (m *memRepo) ListCollections(_ context.Context) ([]domain.Collection, error) {
	out := make([]domain.Collection, 0, len(m.collections))
	for _, col := range m.collections {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) DeleteCollection(_ context.Context, name string) (int, error) {
	if _, ok := m.collections[name]; !ok {
		return 0, domain.ErrCollectionNotFound
	}
	n := len(m.documents[name])
	delete(m.collections, name)
	delete(m.documents, name)
	return n, nil
}

func (m *memRepo) UpsertDocument(_ context.Context, doc domain.Document) error {
	if m.documents[doc.Collection] == nil {
		m.documents[doc.Collection] = make(map[string]domain.Document)
	}
	m.documents[doc.Collection][doc.Path] = doc
	return nil
}

func (m *memRepo) DeleteDocument(_ context.Context, collection, path string) error {
	delete(m.documents[collection], path)
	return nil
}

func (m *memRepo) DocumentHashes(_ context.Context, collection string) (map[string]string, error) {
	hashes := make(map[string]string)
	for path, doc := range m.documents[collection] {
		hashes[path] = doc.Hash
	}
	return hashes, nil
}

func (m *memRepo) SetDocCount(_ context.Context, name string, count int) error {
	col, ok := m.collections[name]
	if !ok {
		return errors.New("unknown collection")
	}
	col.DocCount = count
	m.collections[name] = col
	return nil
}

func (m *memRepo) TotalIndexed(_ context.Context) (int, error) {
	total := 0
	for _, docs := range m.documents {
		total += len(docs)
	}
	return total, nil
}

type testDeps struct {
	searcher *stubSearcher
	repo     *memRepo
	pinger   *stubPinger
	stats    *stubStats
}

func newTestHandler(deps testDeps) http.Handler {
	logger := zap.NewNop()
	if deps.searcher == nil {
		deps.searcher = &stubSearcher{}
	}
	if deps.repo == nil {
		deps.repo = newMemRepo()
	}
	if deps.pinger == nil {
		deps.pinger = &stubPinger{}
	}

	pipeline := pipelineuc.New(deps.searcher, nil, nil, nil, nil, nil,
		pipelineuc.Config{DefaultLimit: 10, MaxLimit: 100}, logger)
	ingest := ingestuc.New(deps.repo, []ingestuc.CacheClearer{&stubClearer{n: 4}}, logger)
	health := healthuc.New(deps.pinger, nil)

	var stats StatsSource
	if deps.stats != nil {
		stats = deps.stats
	}
	server := NewServer(pipeline, ingest, health, stats, logger)

	r := gochi.NewRouter()
	server.Routes(r)
	return r
}
