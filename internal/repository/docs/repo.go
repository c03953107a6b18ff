// Package docs manages collection metadata and indexed documents.
package docs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/localseek/localseek/internal/db"
	"github.com/localseek/localseek/internal/domain"
	"github.com/localseek/localseek/internal/repository/index"
)

// store is the consumer interface for collections and documents (ISP).
//
//nolint:interfacebloat // collection lifecycle needs hash + index management operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements collection and document storage over hash keys
// plus a single shared FT index.
type Repo struct {
	store  store
	prefix string
}

// New creates a docs repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// EnsureIndex creates the shared document index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     index.IndexName(r.prefix),
		Prefixes: []string{index.DocKeyPrefix(r.prefix)},
		Fields: []db.IndexField{
			{Name: "collection", Type: db.IndexFieldTag},
			{Name: "title", Type: db.IndexFieldText, Weight: 2},
			{Name: "content", Type: db.IndexFieldText},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create docs index: %w", err)
	}
	return nil
}

// CreateCollection registers a collection. Documents are added separately.
func (r *Repo) CreateCollection(ctx context.Context, col domain.Collection) error {
	key := r.metaKey(col.Name)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrCollectionExists
	}

	if err := r.store.HSet(ctx, key, collectionToHash(col)); err != nil {
		return fmt.Errorf("hset collection %s: %w", col.Name, err)
	}
	return nil
}

// UpdateCollection overwrites a collection's metadata. Used when a known
// collection is re-registered with a new path or glob.
func (r *Repo) UpdateCollection(ctx context.Context, col domain.Collection) error {
	if err := r.store.HSet(ctx, r.metaKey(col.Name), collectionToHash(col)); err != nil {
		return fmt.Errorf("hset collection %s: %w", col.Name, err)
	}
	return nil
}

// GetCollection retrieves a collection by name.
func (r *Repo) GetCollection(ctx context.Context, name string) (domain.Collection, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return domain.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return collectionFromHash(m), nil
}

// ListCollections returns all collections sorted by name.
func (r *Repo) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	keys, err := r.store.Scan(ctx, r.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}

	collections := make([]domain.Collection, 0, len(keys))
	for _, key := range keys {
		m, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		if len(m) == 0 {
			continue
		}
		collections = append(collections, collectionFromHash(m))
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})
	return collections, nil
}

// DeleteCollection removes a collection's metadata and all its documents.
// Returns the number of documents removed.
func (r *Repo) DeleteCollection(ctx context.Context, name string) (int, error) {
	metaKey := r.metaKey(name)

	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return 0, fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return 0, domain.ErrCollectionNotFound
	}

	if err := r.store.Del(ctx, metaKey); err != nil {
		return 0, fmt.Errorf("del collection %s: %w", name, err)
	}

	docKeys, err := r.store.Scan(ctx, r.docKey(name, "*"))
	if err != nil {
		return 0, fmt.Errorf("scan documents %s: %w", name, err)
	}
	for _, key := range docKeys {
		if err := r.store.Del(ctx, key); err != nil {
			return 0, fmt.Errorf("del %s: %w", key, err)
		}
	}
	return len(docKeys), nil
}

// UpsertDocument stores a document under the indexed key prefix.
func (r *Repo) UpsertDocument(ctx context.Context, doc domain.Document) error {
	key := r.docKey(doc.Collection, doc.Path)
	fields := map[string]string{
		"collection": doc.Collection,
		"path":       doc.Path,
		"title":      doc.Title,
		"content":    doc.Content,
		"hash":       doc.Hash,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset document %s: %w", key, err)
	}
	return nil
}

// DeleteDocument removes one document.
func (r *Repo) DeleteDocument(ctx context.Context, collection, path string) error {
	key := r.docKey(collection, path)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del document %s: %w", key, err)
	}
	return nil
}

// DocumentHashes returns path -> content hash for all stored documents of a
// collection. Reindexing uses it to skip unchanged files and drop deleted ones.
func (r *Repo) DocumentHashes(ctx context.Context, collection string) (map[string]string, error) {
	keys, err := r.store.Scan(ctx, r.docKey(collection, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan documents %s: %w", collection, err)
	}

	hashes := make(map[string]string, len(keys))
	for _, key := range keys {
		m, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		if path := m["path"]; path != "" {
			hashes[path] = m["hash"]
		}
	}
	return hashes, nil
}

// SetDocCount updates the stored document count of a collection.
func (r *Repo) SetDocCount(ctx context.Context, name string, count int) error {
	key := r.metaKey(name)
	if err := r.store.HSet(ctx, key, map[string]string{"doc_count": strconv.Itoa(count)}); err != nil {
		return fmt.Errorf("hset doc_count %s: %w", name, err)
	}
	return nil
}

// CountDocuments counts stored documents for one collection.
func (r *Repo) CountDocuments(ctx context.Context, name string) (int, error) {
	keys, err := r.store.Scan(ctx, r.docKey(name, "*"))
	if err != nil {
		return 0, fmt.Errorf("scan documents %s: %w", name, err)
	}
	return len(keys), nil
}

// TotalIndexed returns the total number of documents in the index.
func (r *Repo) TotalIndexed(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, index.IndexName(r.prefix), "*")
	if err != nil {
		return 0, fmt.Errorf("count indexed: %w", err)
	}
	return n, nil
}

// Key patterns: <prefix>collection:{name}, <prefix>doc:{collection}:{path}

func (r *Repo) metaKey(name string) string {
	return r.prefix + "collection:" + name
}

func (r *Repo) docKey(collection, path string) string {
	return index.DocKeyPrefix(r.prefix) + collection + ":" + path
}

func collectionToHash(col domain.Collection) map[string]string {
	return map[string]string{
		"name":      col.Name,
		"path":      col.Path,
		"glob":      col.Glob,
		"doc_count": strconv.Itoa(col.DocCount),
	}
}

func collectionFromHash(m map[string]string) domain.Collection {
	count, _ := strconv.Atoi(m["doc_count"])
	return domain.Collection{
		Name:     m["name"],
		Path:     m["path"],
		Glob:     m["glob"],
		DocCount: count,
	}
}
