package pipeline

import (
	"context"

	"github.com/localseek/localseek/internal/domain"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, query, collection string, topK int) ([]domain.Candidate, error)
	calls    []searchCall
}

type searchCall struct {
	query      string
	collection string
	topK       int
}

func (m *mockSearcher) Search(ctx context.Context, query, collection string, topK int) ([]domain.Candidate, error) {
	m.calls = append(m.calls, searchCall{query: query, collection: collection, topK: topK})
	return m.searchFn(ctx, query, collection, topK)
}

type mockExpander struct {
	set   domain.ExpansionSet
	calls int
}

func (m *mockExpander) Expand(_ context.Context, query string, _ int) domain.ExpansionSet {
	m.calls++
	if len(m.set.Queries) == 0 {
		return domain.ExpansionSet{Original: query, Queries: []string{query}}
	}
	return m.set
}

type mockReranker struct {
	rerankFn func(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.RerankedCandidate, int)
	calls    int
	lastIn   []domain.Candidate
}

func (m *mockReranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.RerankedCandidate, int) {
	m.calls++
	m.lastIn = candidates
	return m.rerankFn(ctx, query, candidates)
}

type mockWebFetcher struct {
	results []domain.WebResult
	calls   int
}

func (m *mockWebFetcher) Fetch(_ context.Context, _ string, maxResults int) []domain.WebResult {
	m.calls++
	if len(m.results) > maxResults {
		return m.results[:maxResults]
	}
	return m.results
}

type mockSummarizer struct {
	summary string
	ok      bool
	calls   int
	lastWeb []domain.WebResult
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string, _ []domain.Candidate,
	_ []string, webResults []domain.WebResult) (string, bool) {
	m.calls++
	m.lastWeb = webResults
	return m.summary, m.ok
}

type mockSink struct {
	events []domain.SearchEvent
}

func (m *mockSink) Record(_ context.Context, ev domain.SearchEvent) {
	m.events = append(m.events, ev)
}
