package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	KVStore
	HashStore
	IndexManager
	TextSearcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// HashStore provides hash-based storage for documents and events.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// TextSearcher provides BM25 full-text search over an FT index.
type TextSearcher interface {
	SearchText(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
