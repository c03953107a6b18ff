// Package ingest manages collection registration and document indexing:
// walking a directory, extracting titles, and upserting documents into the
// search index.
package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/localseek/localseek/internal/domain"
)

// DefaultGlob is used when a collection is registered without a pattern.
const DefaultGlob = "**/*.md"

// Service handles collection lifecycle and indexing.
type Service struct {
	repo   Repository
	caches []CacheClearer
	logger *zap.Logger
}

// New creates an ingest service. caches are flushed together on ClearCaches.
func New(repo Repository, caches []CacheClearer, logger *zap.Logger) *Service {
	return &Service{repo: repo, caches: caches, logger: logger}
}

// Register adds a collection and indexes its documents. Re-registering a
// known name updates its path and glob and reindexes. Returns the collection
// and the number of documents indexed this pass.
func (s *Service) Register(ctx context.Context, name, root, glob string) (domain.Collection, int, error) {
	if glob == "" {
		glob = DefaultGlob
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return domain.Collection{}, 0, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil || !info.IsDir() {
		return domain.Collection{}, 0, fmt.Errorf("%w: %s", domain.ErrInvalidPath, absRoot)
	}

	if err := s.repo.EnsureIndex(ctx); err != nil {
		return domain.Collection{}, 0, err
	}

	col := domain.Collection{Name: name, Path: absRoot, Glob: glob}
	_, err = s.repo.GetCollection(ctx, name)
	switch {
	case err == nil:
		if err := s.repo.UpdateCollection(ctx, col); err != nil {
			return domain.Collection{}, 0, err
		}
	case errors.Is(err, domain.ErrCollectionNotFound):
		if err := s.repo.CreateCollection(ctx, col); err != nil {
			return domain.Collection{}, 0, err
		}
	default:
		return domain.Collection{}, 0, err
	}

	indexed, total, err := s.indexCollection(ctx, col)
	if err != nil {
		return domain.Collection{}, 0, err
	}
	col.DocCount = total
	return col, indexed, nil
}

// Reindex re-walks one collection's directory. Unchanged files are skipped,
// vanished files are dropped from the index. Returns the number of documents
// written this pass.
func (s *Service) Reindex(ctx context.Context, name string) (int, error) {
	col, err := s.repo.GetCollection(ctx, name)
	if err != nil {
		return 0, err
	}
	indexed, _, err := s.indexCollection(ctx, col)
	return indexed, err
}

// ReindexAll re-walks every registered collection. Returns indexed counts by
// collection name.
func (s *Service) ReindexAll(ctx context.Context) (map[string]int, error) {
	collections, err := s.repo.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]int, len(collections))
	for _, col := range collections {
		indexed, _, err := s.indexCollection(ctx, col)
		if err != nil {
			return nil, fmt.Errorf("reindex %s: %w", col.Name, err)
		}
		results[col.Name] = indexed
	}
	return results, nil
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domain.Collection, error) {
	return s.repo.GetCollection(ctx, name)
}

// List returns all registered collections.
func (s *Service) List(ctx context.Context) ([]domain.Collection, error) {
	return s.repo.ListCollections(ctx)
}

// Delete removes a collection and its documents. Returns the number of
// documents removed.
func (s *Service) Delete(ctx context.Context, name string) (int, error) {
	return s.repo.DeleteCollection(ctx, name)
}

// TotalIndexed returns the total number of documents in the index.
func (s *Service) TotalIndexed(ctx context.Context) (int, error) {
	return s.repo.TotalIndexed(ctx)
}

// ClearCaches flushes all derived-data caches. Returns the total number of
// entries removed.
func (s *Service) ClearCaches(ctx context.Context) (int, error) {
	total := 0
	for _, c := range s.caches {
		n, err := c.Clear(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// indexCollection walks the collection root and syncs the stored documents
// with the filesystem. Returns (documents written, total documents).
func (s *Service) indexCollection(ctx context.Context, col domain.Collection) (int, int, error) {
	existing, err := s.repo.DocumentHashes(ctx, col.Name)
	if err != nil {
		return 0, 0, err
	}

	indexed := 0
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(col.Path, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(col.Path, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchGlob(rel, col.Glob) {
			return nil
		}
		seen[rel] = true

		content, err := os.ReadFile(file)
		if err != nil {
			s.logger.Warn("Skipping unreadable file", zap.String("path", rel), zap.Error(err))
			return nil
		}

		sum := md5.Sum(content)
		hash := hex.EncodeToString(sum[:])
		if existing[rel] == hash {
			return nil
		}

		doc := domain.Document{
			Collection: col.Name,
			Path:       rel,
			Title:      extractTitle(string(content), fileStem(rel)),
			Content:    string(content),
			Hash:       hash,
		}
		if err := s.repo.UpsertDocument(ctx, doc); err != nil {
			return err
		}
		indexed++
		return nil
	})
	if walkErr != nil {
		return 0, 0, fmt.Errorf("index %s: %w", col.Name, walkErr)
	}

	for old := range existing {
		if !seen[old] {
			if err := s.repo.DeleteDocument(ctx, col.Name, old); err != nil {
				return 0, 0, err
			}
		}
	}

	if err := s.repo.SetDocCount(ctx, col.Name, len(seen)); err != nil {
		return 0, 0, err
	}

	s.logger.Info("Collection indexed",
		zap.String("collection", col.Name),
		zap.Int("indexed", indexed),
		zap.Int("total", len(seen)))
	return indexed, len(seen), nil
}

// matchGlob matches a slash-separated relative path against the collection
// glob. A leading "**/" makes the remainder match at any depth.
func matchGlob(rel, pattern string) bool {
	if ok, _ := path.Match(pattern, rel); ok {
		return true
	}
	if rest, found := strings.CutPrefix(pattern, "**/"); found {
		if ok, _ := path.Match(rest, path.Base(rel)); ok {
			return true
		}
		if ok, _ := path.Match(rest, rel); ok {
			return true
		}
	}
	return false
}

var (
	h1Pattern          = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	frontmatterPattern = regexp.MustCompile(`(?m)^title:\s*["']?(.+?)["']?\s*$`)
)

// extractTitle pulls a title from markdown content: first H1, then a
// frontmatter title, then a prettified filename.
func extractTitle(content, fallback string) string {
	if m := h1Pattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	if strings.HasPrefix(content, "---") {
		if end := strings.Index(content[3:], "---"); end > 0 {
			if m := frontmatterPattern.FindStringSubmatch(content[3 : 3+end]); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}

	return prettify(fallback)
}

func fileStem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

// prettify turns "my-meeting_notes" into "My Meeting Notes".
func prettify(stem string) string {
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
