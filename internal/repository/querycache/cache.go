// Package querycache persists query expansions keyed by query fingerprint.
package querycache

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/db"
)

const keySuffix = "expand_cache:"

// store is the consumer interface for the expansion cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Cache stores generated query expansions in a key-value store.
// Entries are newline-joined alternative queries; the original query
// is never stored, only its fingerprint.
type Cache struct {
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an expansion cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	s store,
	keyPrefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		prefix:     keyPrefix + keySuffix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns the cached alternative queries for a query fingerprint.
// Storage failures count as misses; the pipeline regenerates instead of failing.
func (c *Cache) Get(ctx context.Context, fingerprint string) ([]string, bool) {
	key := c.prefix + fingerprint

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached expansion", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	queries := splitQueries(string(data))
	if len(queries) == 0 {
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	c.bumpHits(ctx, key)
	return queries, true
}

// Set stores alternative queries under the query fingerprint.
// Empty expansions are not cached so transient model failures retry later.
func (c *Cache) Set(ctx context.Context, fingerprint string, queries []string) {
	if len(queries) == 0 {
		return
	}
	key := c.prefix + fingerprint
	value := strings.Join(queries, "\n")
	if err := c.store.Set(ctx, key, []byte(value)); err != nil {
		c.logger.Warn("Failed to cache expansion", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes all expansion entries and their hit counters.
// Returns the number of keys removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	keys, err := c.store.Scan(ctx, c.prefix+"*")
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := c.store.Del(ctx, key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// bumpHits maintains a per-entry hit counter for the stats endpoint.
func (c *Cache) bumpHits(ctx context.Context, key string) {
	if _, err := c.store.IncrBy(ctx, key+":hits", 1); err != nil {
		c.logger.Warn("Failed to bump expansion hit counter", zap.String("key", key), zap.Error(err))
	}
}

func splitQueries(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			out = append(out, q)
		}
	}
	return out
}
