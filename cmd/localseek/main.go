package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/config"
	dbRedis "github.com/localseek/localseek/internal/db/redis"
	logpkg "github.com/localseek/localseek/internal/logger"
	"github.com/localseek/localseek/internal/metrics"
	docsrepo "github.com/localseek/localseek/internal/repository/docs"
	indexrepo "github.com/localseek/localseek/internal/repository/index"
	"github.com/localseek/localseek/internal/repository/metricstore"
	"github.com/localseek/localseek/internal/repository/querycache"
	"github.com/localseek/localseek/internal/repository/scorecache"
	chiTransport "github.com/localseek/localseek/internal/transport/chi"
	"github.com/localseek/localseek/internal/transport/ollama"
	expanduc "github.com/localseek/localseek/internal/usecase/expand"
	healthuc "github.com/localseek/localseek/internal/usecase/health"
	ingestuc "github.com/localseek/localseek/internal/usecase/ingest"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
	rerankuc "github.com/localseek/localseek/internal/usecase/rerank"
	summarizeuc "github.com/localseek/localseek/internal/usecase/summarize"
	"github.com/localseek/localseek/internal/version"
	"github.com/localseek/localseek/internal/websearch"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting localseek API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("llm_model", cfg.LLM.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Repositories
	prefix := cfg.Storage.KeyPrefix
	indexRepo := indexrepo.New(store, prefix, cfg.Search.SnippetLength)
	docsRepo := docsrepo.New(store, prefix)
	metricsRepo := metricstore.New(store, prefix, logger)
	expandCache := querycache.New(store, prefix, metrics.ExpandCacheTotal, logger)
	rerankCache := scorecache.New(store, prefix, metrics.RerankCacheTotal, logger)

	// Model client — shared by expansion, reranking, and summarization
	model := ollama.New(&ollama.Config{
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		TimeoutSec: cfg.LLM.TimeoutSec,
		Logger:     logger,
	})

	// Use case services — composition root
	var expander pipelineuc.Expander
	if cfg.Expand.Enabled {
		var cache expanduc.Cache
		if cfg.Expand.Cache && cfg.Cache.Enabled {
			cache = expandCache
		}
		expander = expanduc.New(model, cache, logger)
	}

	var reranker pipelineuc.Reranker
	if cfg.Rerank.Enabled {
		var cache rerankuc.Cache
		if cfg.Rerank.Cache && cfg.Cache.Enabled {
			cache = rerankCache
		}
		reranker = rerankuc.New(model, cache, cfg.Rerank.TopK, logger)
	}

	var webFetcher pipelineuc.WebFetcher
	if cfg.WebSearch.Enabled {
		webFetcher = websearch.New(time.Duration(cfg.WebSearch.TimeoutSec)*time.Second, logger)
	}

	pipeline := pipelineuc.New(
		indexRepo, expander, reranker, webFetcher,
		summarizeuc.New(model, logger), metricsRepo,
		pipelineuc.Config{
			ExpandEnabled:    cfg.Expand.Enabled,
			ExpandCount:      cfg.Expand.Count,
			RerankEnabled:    cfg.Rerank.Enabled,
			WebSearchEnabled: cfg.WebSearch.Enabled,
			WebMaxResults:    cfg.WebSearch.MaxResults,
			DefaultLimit:     cfg.Search.DefaultLimit,
			MaxLimit:         cfg.Search.MaxLimit,
		},
		logger,
	)

	ingest := ingestuc.New(docsRepo, []ingestuc.CacheClearer{expandCache, rerankCache}, logger)
	health := healthuc.New(store, model)

	server := chiTransport.NewServer(pipeline, ingest, health, metricsRepo, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
