package ingest

import (
	"context"

	"github.com/localseek/localseek/internal/domain"
)

// Repository defines the storage contract for collections and documents.
type Repository interface {
	EnsureIndex(ctx context.Context) error
	CreateCollection(ctx context.Context, col domain.Collection) error
	UpdateCollection(ctx context.Context, col domain.Collection) error
	GetCollection(ctx context.Context, name string) (domain.Collection, error)
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	DeleteCollection(ctx context.Context, name string) (int, error)
	UpsertDocument(ctx context.Context, doc domain.Document) error
	DeleteDocument(ctx context.Context, collection, path string) error
	DocumentHashes(ctx context.Context, collection string) (map[string]string, error)
	SetDocCount(ctx context.Context, name string, count int) error
	TotalIndexed(ctx context.Context) (int, error)
}

// CacheClearer flushes one derived-data cache and reports how many entries
// were removed.
type CacheClearer interface {
	Clear(ctx context.Context) (int, error)
}
