package localseek

import (
	"context"
	"fmt"

	"github.com/localseek/localseek/internal/domain"
)

// Collection is a registered document source.
type Collection struct {
	Name     string
	Path     string
	Glob     string
	DocCount int
}

// Register indexes a directory under a collection name. An empty glob
// defaults to "**/*.md". Re-registering a known name updates it in place.
// Returns the collection and the number of documents written.
func (c *Client) Register(ctx context.Context, name, path, glob string) (Collection, int, error) {
	col, indexed, err := c.ingest.Register(ctx, name, path, glob)
	if err != nil {
		return Collection{}, 0, fmt.Errorf("register: %w", err)
	}
	return fromDomainCollection(col), indexed, nil
}

// Collections lists all registered collections.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	cols, err := c.ingest.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}
	out := make([]Collection, len(cols))
	for i, col := range cols {
		out[i] = fromDomainCollection(col)
	}
	return out, nil
}

// Reindex re-walks one collection. Returns documents written.
func (c *Client) Reindex(ctx context.Context, name string) (int, error) {
	n, err := c.ingest.Reindex(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}
	return n, nil
}

// Remove deletes a collection and its documents. Returns documents removed.
func (c *Client) Remove(ctx context.Context, name string) (int, error) {
	n, err := c.ingest.Delete(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("remove: %w", err)
	}
	return n, nil
}

// ClearCaches flushes the expansion and relevance caches.
func (c *Client) ClearCaches(ctx context.Context) (int, error) {
	n, err := c.ingest.ClearCaches(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear caches: %w", err)
	}
	return n, nil
}

func fromDomainCollection(col domain.Collection) Collection {
	return Collection{
		Name:     col.Name,
		Path:     col.Path,
		Glob:     col.Glob,
		DocCount: col.DocCount,
	}
}
