package pipeline

import (
	"context"

	"github.com/localseek/localseek/internal/domain"
)

// Searcher is the lexical index capability. Search failures are the only
// fatal error class in the pipeline.
type Searcher interface {
	Search(ctx context.Context, query, collection string, topK int) ([]domain.Candidate, error)
}

// Expander produces alternative query phrasings. Best-effort.
type Expander interface {
	Expand(ctx context.Context, query string, count int) domain.ExpansionSet
}

// Reranker re-scores candidates and returns them in blended order plus the
// score-cache hit count. Best-effort.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.RerankedCandidate, int)
}

// Summarizer writes a short synthesis of the results. Best-effort.
type Summarizer interface {
	Summarize(ctx context.Context, query string, results []domain.Candidate,
		expandedQueries []string, webResults []domain.WebResult) (string, bool)
}

// WebFetcher returns supplementary web hits. Purely additive.
type WebFetcher interface {
	Fetch(ctx context.Context, query string, maxResults int) []domain.WebResult
}

// MetricsSink receives one event per invocation. Fire-and-forget.
type MetricsSink interface {
	Record(ctx context.Context, ev domain.SearchEvent)
}
