// Package chi implements the HTTP API on the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
	healthuc "github.com/localseek/localseek/internal/usecase/health"
	ingestuc "github.com/localseek/localseek/internal/usecase/ingest"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
)

// StatsSource reads aggregate search telemetry.
type StatsSource interface {
	Stats(ctx context.Context) (domain.MetricsStats, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search pipeline and collection management over HTTP.
type Server struct {
	pipeline      *pipelineuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	stats         StatsSource
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. stats may be nil.
func NewServer(
	pipeline *pipelineuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	stats StatsSource,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipeline,
		ingest:   ingest,
		health:   health,
		stats:    stats,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidPath, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionNotFound),
		sentinelHandler(domain.ErrCollectionExists, http.StatusConflict, codeCollectionExists),
		sentinelHandler(domain.ErrSearchFailed, http.StatusBadGateway, codeSearchFailed),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/search", s.handleSearch)
	r.Post("/api/collections", s.handleRegisterCollection)
	r.Get("/api/collections", s.handleListCollections)
	r.Get("/api/collections/{name}", s.handleGetCollection)
	r.Delete("/api/collections/{name}", s.handleDeleteCollection)
	r.Post("/api/collections/update", s.handleReindexAll)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/cache/clear", s.handleClearCaches)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// handleSearch handles GET /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := pipelineuc.Request{
		Query:      q.Get("q"),
		Collection: q.Get("collection"),
		Expand:     boolParam(q.Get("expand")),
		Rerank:     boolParam(q.Get("rerank")),
		FetchWeb:   boolParam(q.Get("fetch")),
		Summarize:  boolParam(q.Get("summarize")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be an integer")
			return
		}
		req.Limit = n
	}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "min_score must be a number")
			return
		}
		req.MinScore = f
	}

	resp, err := s.pipeline.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToJSON(resp))
}

// handleRegisterCollection handles POST /api/collections.
func (s *Server) handleRegisterCollection(w http.ResponseWriter, r *http.Request) {
	var req registerCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Collection name is required")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Collection path is required")
		return
	}

	col, indexed, err := s.ingest.Register(r.Context(), req.Name, req.Path, req.Glob)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerCollectionResponse{
		Collection: collectionToJSON(col),
		Indexed:    indexed,
	})
}

// handleListCollections handles GET /api/collections.
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.ingest.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]collectionJSON, len(cols))
	for i, c := range cols {
		items[i] = collectionToJSON(c)
	}
	writeJSON(w, http.StatusOK, collectionListResponse{Items: items})
}

// handleGetCollection handles GET /api/collections/{name}.
func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	col, err := s.ingest.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToJSON(col))
}

// handleDeleteCollection handles DELETE /api/collections/{name}.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ingest.Delete(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed_documents": removed})
}

// handleReindexAll handles POST /api/collections/update.
func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.ingest.ReindexAll(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexed": results})
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cols, err := s.ingest.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	totalDocs := 0
	for _, c := range cols {
		totalDocs += c.DocCount
	}

	resp := statsResponse{
		Collections: len(cols),
		Documents:   totalDocs,
	}
	if s.stats != nil {
		stats, err := s.stats.Stats(r.Context())
		if err != nil {
			s.logger.Warn("Stats aggregation failed", zap.Error(err))
		} else {
			resp.Search = &searchStatsJSON{
				TotalSearches:     stats.TotalSearches,
				AvgLatencyMS:      stats.AvgLatencyMS,
				AvgResultCount:    stats.AvgResultCount,
				ExpansionSearches: stats.ExpansionSearches,
				RerankSearches:    stats.RerankSearches,
				ExpansionCacheHit: stats.ExpansionCacheHit,
				RerankCacheHits:   stats.RerankCacheHits,
				ErrorCount:        stats.ErrorCount,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleClearCaches handles POST /api/cache/clear.
func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.ingest.ClearCaches(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func boolParam(v string) bool {
	return v == "true" || v == "1"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidPath,
		domain.ErrCollectionNotFound,
		domain.ErrCollectionExists,
		domain.ErrSearchFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
