package domain

import "context"

// Chat message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is a single message in a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatClient is the reduced capability the pipeline needs from an external
// relevance model. Implementations must treat transport failures as
// non-fatal: Chat returns an error, callers degrade to fallback behavior.
type ChatClient interface {
	// IsAvailable reports whether the model server responds. The result is
	// cached per client instance after the first check.
	IsAvailable(ctx context.Context) bool

	// Chat sends a chat completion request and returns the generated text.
	Chat(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float32) (string, error)
}
