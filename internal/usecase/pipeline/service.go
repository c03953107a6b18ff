// Package pipeline orchestrates the hybrid retrieval enhancement flow:
// expansion, per-query lexical search, fusion, reranking, blending, plus
// the optional web and summary supplements.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	"github.com/localseek/localseek/internal/metrics"
	"github.com/localseek/localseek/internal/usecase/fuse"
)

// Request is one search invocation.
type Request struct {
	Query      string
	Collection string
	Limit      int
	MinScore   float64
	Expand     bool
	Rerank     bool
	FetchWeb   bool
	Summarize  bool
}

// Result is one ranked output record. Rerank fields are zero unless
// Reranked is set.
type Result struct {
	domain.Candidate

	FinalScore  float64
	Reranked    bool
	Relevance   float64
	Blended     float64
	LexicalRank int
}

// Response is the pipeline output.
type Response struct {
	Query           string
	ExpandedQueries []string // nil unless expansion produced alternatives
	Results         []Result
	WebResults      []domain.WebResult
	Summary         string
	LatencyMS       int64
}

// Config holds the capability toggles and bounds wired at composition time.
type Config struct {
	ExpandEnabled    bool
	ExpandCount      int
	RerankEnabled    bool
	WebSearchEnabled bool
	WebMaxResults    int
	DefaultLimit     int
	MaxLimit         int
}

// Service implements the search pipeline. Optional collaborators may be nil;
// a nil collaborator reads as "capability absent" and the stage is skipped.
type Service struct {
	searcher   Searcher
	expander   Expander
	reranker   Reranker
	webFetcher WebFetcher
	summarizer Summarizer
	sink       MetricsSink
	cfg        Config
	logger     *zap.Logger
	nowFn      func() time.Time
}

// New creates the pipeline service.
func New(
	searcher Searcher, expander Expander, reranker Reranker,
	webFetcher WebFetcher, summarizer Summarizer, sink MetricsSink,
	cfg Config, logger *zap.Logger,
) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Service{
		searcher:   searcher,
		expander:   expander,
		reranker:   reranker,
		webFetcher: webFetcher,
		summarizer: summarizer,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		nowFn:      time.Now,
	}
}

// Search runs one pipeline invocation.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	start := s.nowFn()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, domain.ErrEmptyQuery
	}
	limit := s.clampLimit(req.Limit)

	doExpand := req.Expand && s.cfg.ExpandEnabled && s.expander != nil
	doRerank := req.Rerank && s.cfg.RerankEnabled && s.reranker != nil

	exp := domain.ExpansionSet{Original: query, Queries: []string{query}}
	if doExpand {
		exp = s.expander.Expand(ctx, query, s.cfg.ExpandCount)
	}

	// Over-fetch when reranking so the blend has candidates to promote.
	fetchLimit := limit
	if doRerank {
		fetchLimit = limit * 2
	}

	lists := make([][]domain.Candidate, 0, len(exp.Queries))
	for _, q := range exp.Queries {
		candidates, err := s.searcher.Search(ctx, q, req.Collection, fetchLimit)
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
			s.record(ctx, query, req, start, nil, exp, 0, err)
			metrics.SearchRequestsTotal.WithLabelValues(collectionLabel(req.Collection), "error").Inc()
			return Response{}, err
		}
		lists = append(lists, filterMinScore(candidates, req.MinScore))
	}

	fused := fuse.Fuse(lists, len(exp.Queries), fetchLimit)

	results, rerankCacheHits := s.rank(ctx, query, fused, limit, doRerank)

	resp := Response{
		Query:     query,
		Results:   results,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if exp.Expanded() {
		resp.ExpandedQueries = exp.Queries
	}

	if req.FetchWeb && s.cfg.WebSearchEnabled && s.webFetcher != nil {
		resp.WebResults = s.webFetcher.Fetch(ctx, query, s.cfg.WebMaxResults)
	}

	if req.Summarize && s.summarizer != nil {
		if summary, ok := s.summarizer.Summarize(
			ctx, query, candidatesOf(results), resp.ExpandedQueries, resp.WebResults,
		); ok {
			resp.Summary = summary
		}
	}

	s.recordResponse(ctx, query, req, start, resp, exp, rerankCacheHits)
	s.observe(req.Collection, start, len(results))

	return resp, nil
}

// rank applies the optional rerank+blend stage and truncates to limit.
// Cancellation during reranking degrades to the un-reranked fused order.
func (s *Service) rank(
	ctx context.Context, query string, fused []domain.Candidate, limit int, doRerank bool,
) ([]Result, int) {
	if doRerank && len(fused) > 0 {
		reranked, cacheHits := s.reranker.Rerank(ctx, query, fused)
		if ctx.Err() == nil && len(reranked) > 0 {
			if len(reranked) > limit {
				reranked = reranked[:limit]
			}
			out := make([]Result, len(reranked))
			for i, r := range reranked {
				out[i] = Result{
					Candidate:   r.Candidate,
					FinalScore:  r.Blended,
					Reranked:    true,
					Relevance:   r.Relevance,
					Blended:     r.Blended,
					LexicalRank: r.LexicalRank,
				}
			}
			return out, cacheHits
		}
		s.logger.Warn("Rerank abandoned, returning fused order", zap.Error(ctx.Err()))
	}

	if len(fused) > limit {
		fused = fused[:limit]
	}
	out := make([]Result, len(fused))
	for i, c := range fused {
		out[i] = Result{Candidate: c, FinalScore: c.Score, LexicalRank: i + 1}
	}
	return out, 0
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

func filterMinScore(candidates []domain.Candidate, minScore float64) []domain.Candidate {
	if minScore <= 0 {
		return candidates
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	return out
}

func candidatesOf(results []Result) []domain.Candidate {
	out := make([]domain.Candidate, len(results))
	for i, r := range results {
		out[i] = r.Candidate
	}
	return out
}

func (s *Service) recordResponse(
	ctx context.Context, query string, req Request, start time.Time,
	resp Response, exp domain.ExpansionSet, rerankCacheHits int,
) {
	var topScore float64
	if len(resp.Results) > 0 {
		topScore = resp.Results[0].FinalScore
	}
	ev := domain.SearchEvent{
		QueryFingerprint:  domain.QueryFingerprint(query),
		QueryLength:       len(query),
		CollectionFilter:  req.Collection,
		ResultCount:       len(resp.Results),
		TopScore:          topScore,
		LatencyMS:         resp.LatencyMS,
		UsedExpansion:     exp.Expanded(),
		UsedRerank:        req.Rerank && s.cfg.RerankEnabled,
		ExpansionCacheHit: exp.CacheHit,
		RerankCacheHits:   rerankCacheHits,
	}
	s.emit(ctx, ev)
}

func (s *Service) record(
	ctx context.Context, query string, req Request, start time.Time,
	results []Result, exp domain.ExpansionSet, rerankCacheHits int, err error,
) {
	ev := domain.SearchEvent{
		QueryFingerprint:  domain.QueryFingerprint(query),
		QueryLength:       len(query),
		CollectionFilter:  req.Collection,
		ResultCount:       len(results),
		LatencyMS:         time.Since(start).Milliseconds(),
		UsedExpansion:     exp.Expanded(),
		ExpansionCacheHit: exp.CacheHit,
		RerankCacheHits:   rerankCacheHits,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.emit(ctx, ev)
}

func (s *Service) emit(ctx context.Context, ev domain.SearchEvent) {
	if s.sink == nil {
		return
	}
	s.sink.Record(ctx, ev)
}

func (s *Service) observe(collection string, start time.Time, resultCount int) {
	label := collectionLabel(collection)
	metrics.SearchRequestsTotal.WithLabelValues(label, "success").Inc()
	metrics.SearchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	metrics.SearchResultsReturned.WithLabelValues(label).Observe(float64(resultCount))
}

func collectionLabel(collection string) string {
	if collection == "" {
		return "all"
	}
	return collection
}
