// Package expand generates alternative query phrasings via the relevance model.
package expand

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	"github.com/localseek/localseek/internal/metrics"
)

const (
	expandMaxTokens   = 200
	expandTemperature = 0.7
)

// Service implements the expansion stage. Expansion is always best-effort:
// any failure degrades to returning just the original query.
type Service struct {
	model  Model
	cache  Cache // nil disables caching
	logger *zap.Logger
}

// New creates an expansion service. A nil cache disables caching.
func New(model Model, cache Cache, logger *zap.Logger) *Service {
	return &Service{model: model, cache: cache, logger: logger}
}

// Expand returns the original query plus up to count alternative phrasings.
// The original is always first.
func (s *Service) Expand(ctx context.Context, query string, count int) domain.ExpansionSet {
	out := domain.ExpansionSet{Original: query, Queries: []string{query}}
	if count <= 0 {
		return out
	}

	fingerprint := domain.QueryFingerprint(query)

	if s.cache != nil {
		if alts, ok := s.cache.Get(ctx, fingerprint); ok {
			out.Queries = append(out.Queries, alts...)
			out.CacheHit = true
			return out
		}
	}

	if !s.model.IsAvailable(ctx) {
		s.logger.Warn("Expansion skipped: model unavailable")
		return out
	}

	alts := s.generate(ctx, query, count)
	if len(alts) == 0 {
		return out
	}

	if s.cache != nil {
		s.cache.Set(ctx, fingerprint, alts)
	}
	out.Queries = append(out.Queries, alts...)
	return out
}

func (s *Service) generate(ctx context.Context, query string, count int) []string {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You rephrase search queries. Output only the rephrased queries, one per line, without numbering, bullets, or quotes."},
		{Role: domain.RoleUser, Content: buildPrompt(query, count)},
	}

	resp, err := s.model.Chat(ctx, messages, expandMaxTokens, expandTemperature)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("expand", "error").Inc()
		s.logger.Warn("Expansion generation failed", zap.Error(err))
		return nil
	}
	metrics.LLMRequestsTotal.WithLabelValues("expand", "success").Inc()

	return parseAlternatives(resp, query, count)
}

func buildPrompt(query string, count int) string {
	return fmt.Sprintf("Generate %d alternative phrasings of this search query:\n\n%s", count, query)
}

// parseAlternatives extracts alternative queries from the model output,
// stripping list markers and discarding echoes of the original.
func parseAlternatives(resp, original string, count int) []string {
	trimmedOriginal := strings.TrimSpace(original)

	var out []string
	for _, line := range strings.Split(resp, "\n") {
		q := stripListMarker(strings.TrimSpace(line))
		if len(q) <= 2 {
			continue
		}
		if strings.EqualFold(q, trimmedOriginal) {
			continue
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out
}

// stripListMarker removes leading "1." / "2)" / "3:" / "-" / "•" / "*" markers.
func stripListMarker(line string) string {
	trimmed := strings.TrimLeft(line, "-•* ")
	// digit prefix: 1. 2) 3:
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) {
		switch trimmed[i] {
		case '.', ')', ':':
			return strings.TrimSpace(trimmed[i+1:])
		}
	}
	return strings.TrimSpace(trimmed)
}
