// Package summarize generates a short model-written synthesis of search
// results. Always best-effort: failures return no summary, never an error.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	"github.com/localseek/localseek/internal/metrics"
)

const (
	maxLocalResults = 5
	maxWebResults   = 3
	maxSnippetChars = 200

	summaryMaxTokens   = 250
	summaryTemperature = 0.3
)

// Model is the reduced relevance-model capability this stage needs.
type Model interface {
	IsAvailable(ctx context.Context) bool
	Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int, temperature float32) (string, error)
}

// Service produces result summaries.
type Service struct {
	model  Model
	logger *zap.Logger
}

// New creates a summarize service.
func New(model Model, logger *zap.Logger) *Service {
	return &Service{model: model, logger: logger}
}

// Summarize returns a 2-4 sentence synthesis of the results, or ("", false)
// when the model is unavailable or fails.
func (s *Service) Summarize(
	ctx context.Context, query string,
	results []domain.Candidate, expandedQueries []string, webResults []domain.WebResult,
) (string, bool) {
	if !s.model.IsAvailable(ctx) {
		return "", false
	}

	prompt := buildPrompt(query, results, expandedQueries, webResults)
	if prompt == "" {
		return "No results to summarize.", true
	}

	messages := []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}

	summary, err := s.model.Chat(ctx, messages, summaryMaxTokens, summaryTemperature)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues("summarize", "error").Inc()
		s.logger.Warn("Summarization failed", zap.Error(err))
		return "", false
	}
	metrics.LLMRequestsTotal.WithLabelValues("summarize", "success").Inc()

	return strings.TrimSpace(summary), true
}

// buildPrompt combines local and web context. Returns "" when there is
// nothing to summarize.
func buildPrompt(
	query string, results []domain.Candidate,
	expandedQueries []string, webResults []domain.WebResult,
) string {
	var parts []string

	if len(expandedQueries) > 1 {
		parts = append(parts, "Search expanded to: "+strings.Join(expandedQueries, ", "))
	}

	if len(results) > 0 {
		var b strings.Builder
		b.WriteString("\n**Local Documents:**\n")
		for i, r := range results {
			if i >= maxLocalResults {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, clip(r.Snippet, maxSnippetChars))
		}
		parts = append(parts, b.String())
	}

	if len(webResults) > 0 {
		var b strings.Builder
		b.WriteString("\n**Web Results:**\n")
		for i, r := range webResults {
			if i >= maxWebResults {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n   %s\n   Source: %s\n", i+1, r.Title, clip(r.Snippet, maxSnippetChars), r.URL)
		}
		parts = append(parts, b.String())
	}

	if len(results) == 0 && len(webResults) == 0 {
		return ""
	}

	return fmt.Sprintf(
		"Query: %s\n\n%s\n\nProvide a 2-4 sentence summary synthesizing the key insights. Mention document titles or sources when relevant.",
		query, strings.Join(parts, "\n"),
	)
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
