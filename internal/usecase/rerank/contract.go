package rerank

import (
	"context"

	"github.com/localseek/localseek/internal/domain"
)

// Cache stores relevance scores keyed by (query, document) fingerprints.
type Cache interface {
	Get(ctx context.Context, queryFP, docFP string) (float64, bool)
	Set(ctx context.Context, queryFP, docFP string, score float64)
}

// Model is the reduced relevance-model capability this stage needs.
type Model interface {
	IsAvailable(ctx context.Context) bool
	Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int, temperature float32) (string, error)
}
