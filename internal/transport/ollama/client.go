// Package ollama implements the chat client against an Ollama server's
// OpenAI-compatible API.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
)

// Client talks to a local Ollama instance. Ollama exposes /v1 chat
// completions, so the OpenAI client works unchanged; the API key is a
// placeholder the server ignores.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger

	availOnce sync.Once
	available bool
}

// Config holds the model server settings.
type Config struct {
	BaseURL    string
	Model      string
	TimeoutSec int
	Logger     *zap.Logger
}

// New creates an Ollama chat client.
func New(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig("ollama")
	clientCfg.BaseURL = cfg.BaseURL

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// IsAvailable reports whether the model server responds. Checked once per
// client instance via ListModels (free endpoint) and cached.
func (c *Client) IsAvailable(ctx context.Context) bool {
	c.availOnce.Do(func() {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if _, err := c.client.ListModels(checkCtx); err != nil {
			c.logger.Warn("Model server unavailable", zap.Error(err))
			return
		}
		c.available = true
	})
	return c.available
}

// Chat sends a chat completion request and returns the generated text.
func (c *Client) Chat(
	ctx context.Context, messages []domain.ChatMessage, maxTokens int, temperature float32,
) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := c.client.CreateChatCompletion(reqCtx, req)
	if err != nil {
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrModelUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelUnavailable so callers degrade
// instead of failing the search.
func parseAPIError(err error) error {
	wrap := domain.ErrModelUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("model API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("model request failed: %v: %w", err, wrap)
}
