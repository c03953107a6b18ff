// Package scorecache persists model relevance scores keyed by
// (query fingerprint, document fingerprint) pairs.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/db"
)

const keySuffix = "score_cache:"

// store is the consumer interface for the score cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Cache stores relevance scores in a key-value store. A score survives
// any reordering of the candidate list: identity is content, not rank.
type Cache struct {
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a relevance score cache.
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

// Get returns the cached relevance score for a (query, document) pair.
// Storage failures and unparseable entries count as misses.
func (c *Cache) Get(ctx context.Context, queryFP, docFP string) (float64, bool) {
	key := c.key(queryFP, docFP)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached score", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return 0, false
	}

	score, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		c.logger.Warn("Failed to parse cached score", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return 0, false
	}

	c.incCache("hit")
	return score, true
}

// Set stores a relevance score for a (query, document) pair.
func (c *Cache) Set(ctx context.Context, queryFP, docFP string, score float64) {
	key := c.key(queryFP, docFP)
	value := strconv.FormatFloat(score, 'f', -1, 64)
	if err := c.store.Set(ctx, key, []byte(value)); err != nil {
		c.logger.Warn("Failed to cache score", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes all cached scores. Returns the number of keys removed.
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

func (c *Cache) key(queryFP, docFP string) string {
	sum := sha256.Sum256([]byte(queryFP + ":" + docFP))
	return c.prefix + hex.EncodeToString(sum[:])
}
