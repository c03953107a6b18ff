// Package rerank re-scores fused candidates with the relevance model and
// blends lexical and model signals into the final ordering.
package rerank

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	"github.com/localseek/localseek/internal/metrics"
)

const (
	// DefaultTopK bounds how many candidates are re-scored per search.
	DefaultTopK = 20

	// neutralScore is used when the model returns nothing for a candidate.
	neutralScore = 5.0

	rerankTemperature = 0.0
)

// Service implements the rerank stage. Model failure is never fatal: every
// unscored candidate falls back to the neutral score.
type Service struct {
	model       Model
	cache       Cache // nil disables caching
	fingerprint domain.Fingerprinter
	topK        int
	logger      *zap.Logger
}

// New creates a rerank service. A nil cache disables caching.
func New(model Model, cache Cache, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		model:       model,
		cache:       cache,
		fingerprint: domain.SnippetFingerprint,
		topK:        topK,
		logger:      logger,
	}
}

// WithFingerprinter swaps the document identity function used for cache keys.
func (s *Service) WithFingerprinter(fp domain.Fingerprinter) *Service {
	s.fingerprint = fp
	return s
}

// Rerank re-scores the first topK candidates and returns them ordered by
// blended score descending, plus the number of cache hits.
func (s *Service) Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.RerankedCandidate, int) {
	if len(candidates) > s.topK {
		candidates = candidates[:s.topK]
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	queryFP := domain.QueryFingerprint(query)
	scores := make([]float64, len(candidates))
	docFPs := make([]string, len(candidates))

	var uncached []int
	var cacheHits int
	for i, c := range candidates {
		docFPs[i] = s.fingerprint(c)
		if s.cache != nil {
			if score, ok := s.cache.Get(ctx, queryFP, docFPs[i]); ok {
				scores[i] = score
				cacheHits++
				continue
			}
		}
		uncached = append(uncached, i)
	}

	if len(uncached) > 0 {
		s.scoreBatch(ctx, query, candidates, uncached, queryFP, docFPs, scores)
	}

	out := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedCandidate{
			Candidate:   c,
			Relevance:   scores[i],
			LexicalRank: i + 1,
			Blended:     blend(c.Score, scores[i], i+1),
		}
	}
	// Stable: ties keep pre-rerank order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Blended > out[j].Blended
	})

	return out, cacheHits
}

// scoreBatch fills scores for all uncached candidates with one model call.
// Failures leave the neutral score in place.
func (s *Service) scoreBatch(
	ctx context.Context, query string, candidates []domain.Candidate,
	uncached []int, queryFP string, docFPs []string, scores []float64,
) {
	for _, i := range uncached {
		scores[i] = neutralScore
	}

	if !s.model.IsAvailable(ctx) {
		s.logger.Warn("Rerank skipped: model unavailable")
		return
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You rate document relevance. Output one score from 0 to 10 per line, one line per document, in input order. No explanations."},
		{Role: domain.RoleUser, Content: buildPrompt(query, candidates, uncached)},
	}
	maxTokens := 10*len(uncached) + 50

	resp, err := s.model.Chat(ctx, messages, maxTokens, rerankTemperature)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("rerank", "error").Inc()
		s.logger.Warn("Rerank scoring failed", zap.Error(err))
		return
	}
	metrics.LLMRequestsTotal.WithLabelValues("rerank", "success").Inc()

	parsed := parseScores(resp)
	// Missing trailing scores pad to neutral; a successful call caches
	// everything, padded values included.
	for n, i := range uncached {
		score := neutralScore
		if n < len(parsed) {
			score = parsed[n]
		}
		scores[i] = score
		if s.cache != nil {
			s.cache.Set(ctx, queryFP, docFPs[i], score)
		}
	}
}

func buildPrompt(query string, candidates []domain.Candidate, uncached []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nDocuments:\n", query)
	for n, i := range uncached {
		c := candidates[i]
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", n+1, c.Title, c.Snippet)
	}
	b.WriteString("Rate each document's relevance to the query, 0-10, one score per line.")
	return b.String()
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseScores extracts one relevance score per response line. Each line's
// last numeric token wins, so "[3] 7" and "3: score 7" both read as 7.
// Non-numeric lines are discarded; values clamp to [0,10].
func parseScores(resp string) []float64 {
	var out []float64
	for _, line := range strings.Split(resp, "\n") {
		matches := numberPattern.FindAllString(line, -1)
		if len(matches) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(matches[len(matches)-1], 64)
		if err != nil {
			continue
		}
		if v < 0 {
			v = 0
		}
		if v > 10 {
			v = 10
		}
		out = append(out, v)
	}
	return out
}
