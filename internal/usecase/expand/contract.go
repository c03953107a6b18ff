package expand

import (
	"context"

	"github.com/localseek/localseek/internal/domain"
)

// Cache stores generated expansions keyed by query fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) ([]string, bool)
	Set(ctx context.Context, fingerprint string, queries []string)
}

// Model is the reduced relevance-model capability this stage needs.
type Model interface {
	IsAvailable(ctx context.Context) bool
	Chat(ctx context.Context, messages []domain.ChatMessage, maxTokens int, temperature float32) (string, error)
}
