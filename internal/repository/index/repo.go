// Package index performs BM25 full-text search over the document index.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/localseek/localseek/internal/db"
	"github.com/localseek/localseek/internal/domain"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the lexical searcher over the shared document index.
type Repo struct {
	store      store
	prefix     string
	snippetLen int
}

// New creates a lexical search repository.
func New(s store, keyPrefix string, snippetLen int) *Repo {
	return &Repo{store: s, prefix: keyPrefix, snippetLen: snippetLen}
}

// IndexName returns the FT index name for the given key prefix.
func IndexName(keyPrefix string) string {
	return keyPrefix + "docs:idx"
}

// DocKeyPrefix returns the hash key prefix for indexed documents.
func DocKeyPrefix(keyPrefix string) string {
	return keyPrefix + "doc:"
}

// Search runs a BM25 query, optionally restricted to one collection,
// and returns candidates in descending score order.
func (r *Repo) Search(ctx context.Context, query, collection string, topK int) ([]domain.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    IndexName(r.prefix),
		Query:        query,
		Collection:   collection,
		TopK:         topK,
		ReturnFields: []string{"collection", "path", "title", "content"},
	}

	sr, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	return r.parseResults(sr, query), nil
}

func (r *Repo) parseResults(sr *db.SearchResult, query string) []domain.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := domain.Candidate{
			Collection: entry.Fields["collection"],
			Path:       entry.Fields["path"],
			Title:      entry.Fields["title"],
			Snippet:    makeSnippet(entry.Fields["content"], query, r.snippetLen),
			Score:      entry.Score,
			Query:      query,
		}
		if c.Collection == "" || c.Path == "" {
			c.Collection, c.Path = splitDocKey(entry.Key, DocKeyPrefix(r.prefix))
		}
		out = append(out, c)
	}
	return out
}

// splitDocKey recovers (collection, path) from a document hash key
// of the form <prefix>doc:<collection>:<path>.
func splitDocKey(key, docPrefix string) (string, string) {
	rest := strings.TrimPrefix(key, docPrefix)
	collection, path, ok := strings.Cut(rest, ":")
	if !ok {
		return rest, ""
	}
	return collection, path
}

// makeSnippet extracts a window of content around the first query term match.
// Falls back to the leading window when no term matches.
func makeSnippet(content, query string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}

	pos := firstTermIndex(content, query)
	if pos < 0 {
		pos = 0
	}

	// Center the window on the match.
	start := pos - maxLen/2
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(content) {
		end = len(content)
		start = end - maxLen
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}

// firstTermIndex returns the byte offset of the earliest case-insensitive
// occurrence of any query term, or -1.
func firstTermIndex(content, query string) int {
	lower := strings.ToLower(content)
	best := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if idx := strings.Index(lower, term); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
