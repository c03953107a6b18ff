// Package localseek is the embedded SDK: it wires the full search pipeline
// (lexical index, query expansion, reranking, web supplement, summaries)
// against a Redis store, without running the HTTP server.
package localseek

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/db"
	dbRedis "github.com/localseek/localseek/internal/db/redis"
	docsrepo "github.com/localseek/localseek/internal/repository/docs"
	indexrepo "github.com/localseek/localseek/internal/repository/index"
	"github.com/localseek/localseek/internal/repository/querycache"
	"github.com/localseek/localseek/internal/repository/scorecache"
	"github.com/localseek/localseek/internal/transport/ollama"
	expanduc "github.com/localseek/localseek/internal/usecase/expand"
	ingestuc "github.com/localseek/localseek/internal/usecase/ingest"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
	rerankuc "github.com/localseek/localseek/internal/usecase/rerank"
	summarizeuc "github.com/localseek/localseek/internal/usecase/summarize"
	"github.com/localseek/localseek/internal/websearch"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "localseek:"
	defaultSnippetLength    = 150
	defaultLimit            = 10
	maxLimit                = 100
	defaultExpandCount      = 2
	defaultRerankTopK       = 20
	defaultWebMaxResults    = 5
)

// ModelConfig points the client at an Ollama-compatible model server.
// Without it, expansion, reranking, and summaries are disabled.
type ModelConfig struct {
	BaseURL    string
	Model      string
	TimeoutSec int
}

// Config holds client settings. Addrs is required.
type Config struct {
	Addrs     []string
	Password  string
	KeyPrefix string

	SnippetLength int
	Model         *ModelConfig
	WebSearch     bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is the localseek SDK entry point.
type Client struct {
	store    db.Store
	pipeline *pipelineuc.Service
	ingest   *ingestuc.Service
}

// New creates a client and waits for the store to become reachable.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("localseek: addrs is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	snippetLen := cfg.SnippetLength
	if snippetLen <= 0 {
		snippetLen = defaultSnippetLength
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("localseek: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("localseek: store not ready: %w", err)
	}

	indexRepo := indexrepo.New(store, prefix, snippetLen)
	docsRepo := docsrepo.New(store, prefix)
	expandCache := querycache.New(store, prefix, nil, logger)
	rerankCache := scorecache.New(store, prefix, nil, logger)

	var (
		expander   pipelineuc.Expander
		reranker   pipelineuc.Reranker
		summarizer pipelineuc.Summarizer
	)
	if cfg.Model != nil {
		model := ollama.New(&ollama.Config{
			BaseURL:    cfg.Model.BaseURL,
			Model:      cfg.Model.Model,
			TimeoutSec: cfg.Model.TimeoutSec,
			Logger:     logger,
		})
		expander = expanduc.New(model, expandCache, logger)
		reranker = rerankuc.New(model, rerankCache, defaultRerankTopK, logger)
		summarizer = summarizeuc.New(model, logger)
	}

	var webFetcher pipelineuc.WebFetcher
	if cfg.WebSearch {
		webFetcher = websearch.New(10*time.Second, logger)
	}

	pipeline := pipelineuc.New(
		indexRepo, expander, reranker, webFetcher, summarizer, nil,
		pipelineuc.Config{
			ExpandEnabled:    cfg.Model != nil,
			ExpandCount:      defaultExpandCount,
			RerankEnabled:    cfg.Model != nil,
			WebSearchEnabled: cfg.WebSearch,
			WebMaxResults:    defaultWebMaxResults,
			DefaultLimit:     defaultLimit,
			MaxLimit:         maxLimit,
		},
		logger,
	)

	ingest := ingestuc.New(docsRepo,
		[]ingestuc.CacheClearer{expandCache, rerankCache}, logger)

	return &Client{store: store, pipeline: pipeline, ingest: ingest}, nil
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	c.store.Close()
}
