// Package metricstore records search telemetry events and serves
// aggregate statistics for the stats endpoint.
package metricstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/db"
	"github.com/localseek/localseek/internal/domain"
)

const (
	eventKeySuffix   = "event:"
	counterKeySuffix = "stats:"

	// recentEventTTL bounds the retention of raw event records;
	// aggregate counters live forever.
	recentEventTTL = 7 * 24 * time.Hour
)

// store is the consumer interface for the metrics store (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Store persists events as hashes and aggregates as counters.
type Store struct {
	store  store
	prefix string
	logger *zap.Logger
	nowFn  func() time.Time
}

// New creates a metrics store.
func New(s store, keyPrefix string, logger *zap.Logger) *Store {
	return &Store{store: s, prefix: keyPrefix, logger: logger, nowFn: time.Now}
}

// Record stores one search event and bumps the aggregate counters.
// Errors only log; callers never see them.
func (m *Store) Record(ctx context.Context, ev domain.SearchEvent) {
	now := m.nowFn().UTC()
	key := fmt.Sprintf("%s%s%d:%s", m.prefix, eventKeySuffix, now.UnixNano(), ev.QueryFingerprint)

	fields := map[string]string{
		"ts":             now.Format(time.RFC3339Nano),
		"query_fp":       ev.QueryFingerprint,
		"query_len":      strconv.Itoa(ev.QueryLength),
		"collection":     ev.CollectionFilter,
		"result_count":   strconv.Itoa(ev.ResultCount),
		"top_score":      strconv.FormatFloat(ev.TopScore, 'f', -1, 64),
		"latency_ms":     strconv.FormatInt(ev.LatencyMS, 10),
		"used_expansion": strconv.FormatBool(ev.UsedExpansion),
		"used_rerank":    strconv.FormatBool(ev.UsedRerank),
		"expand_hit":     strconv.FormatBool(ev.ExpansionCacheHit),
		"rerank_hits":    strconv.Itoa(ev.RerankCacheHits),
		"error":          ev.Error,
	}
	if err := m.store.HSet(ctx, key, fields); err != nil {
		m.logger.Warn("Failed to record search event", zap.Error(err))
		return
	}
	if err := m.store.Expire(ctx, key, recentEventTTL); err != nil {
		m.logger.Warn("Failed to expire search event", zap.Error(err))
	}

	m.bump(ctx, "total_searches", 1)
	m.bump(ctx, "total_latency_ms", ev.LatencyMS)
	m.bump(ctx, "total_results", int64(ev.ResultCount))
	if ev.UsedExpansion {
		m.bump(ctx, "expansion_searches", 1)
	}
	if ev.UsedRerank {
		m.bump(ctx, "rerank_searches", 1)
	}
	if ev.ExpansionCacheHit {
		m.bump(ctx, "expansion_cache_hits", 1)
	}
	if ev.RerankCacheHits > 0 {
		m.bump(ctx, "rerank_cache_hits", int64(ev.RerankCacheHits))
	}
	if ev.Error != "" {
		m.bump(ctx, "error_count", 1)
	}
}

// Stats reads the aggregate counters.
func (m *Store) Stats(ctx context.Context) (domain.MetricsStats, error) {
	var readErr error
	read := func(name string) int64 {
		if readErr != nil {
			return 0
		}
		var v int64
		v, readErr = m.counter(ctx, name)
		return v
	}

	total := read("total_searches")
	totalLatency := read("total_latency_ms")
	totalResults := read("total_results")

	s := domain.MetricsStats{
		TotalSearches:     total,
		ExpansionSearches: read("expansion_searches"),
		RerankSearches:    read("rerank_searches"),
		ExpansionCacheHit: read("expansion_cache_hits"),
		RerankCacheHits:   read("rerank_cache_hits"),
		ErrorCount:        read("error_count"),
	}
	if readErr != nil {
		return domain.MetricsStats{}, fmt.Errorf("read stats: %w", readErr)
	}
	if total > 0 {
		s.AvgLatencyMS = float64(totalLatency) / float64(total)
		s.AvgResultCount = float64(totalResults) / float64(total)
	}
	return s, nil
}

func (m *Store) bump(ctx context.Context, name string, delta int64) {
	if delta == 0 {
		return
	}
	if _, err := m.store.IncrBy(ctx, m.counterKey(name), delta); err != nil {
		m.logger.Warn("Failed to bump search counter", zap.String("counter", name), zap.Error(err))
	}
}

// counter reads one aggregate; a missing key reads as zero.
func (m *Store) counter(ctx context.Context, name string) (int64, error) {
	data, err := m.store.Get(ctx, m.counterKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get counter %s: %w", name, err)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", name, err)
	}
	return v, nil
}

func (m *Store) counterKey(name string) string {
	return m.prefix + counterKeySuffix + name
}
