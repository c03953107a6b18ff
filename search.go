package localseek

import (
	"context"
	"fmt"

	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
)

// SearchOptions configures one search invocation. The zero value is a plain
// lexical search with the default limit.
type SearchOptions struct {
	Collection string
	Limit      int
	MinScore   float64
	Expand     bool
	Rerank     bool
	FetchWeb   bool
	Summarize  bool
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Collection string
	Path       string
	Title      string
	Snippet    string
	Score      float64

	// Reranked marks results scored by the relevance model. Relevance and
	// BlendedScore are only meaningful when set.
	Reranked     bool
	Relevance    float64
	BlendedScore float64
}

// WebResult is a supplementary web hit.
type WebResult struct {
	Title   string
	Snippet string
	URL     string
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	Query           string
	ExpandedQueries []string
	Results         []SearchResult
	WebResults      []WebResult
	Summary         string
	LatencyMS       int64
}

// Search runs the retrieval pipeline.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) (SearchResponse, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	resp, err := c.pipeline.Search(ctx, pipelineuc.Request{
		Query:      query,
		Collection: opts.Collection,
		Limit:      opts.Limit,
		MinScore:   opts.MinScore,
		Expand:     opts.Expand,
		Rerank:     opts.Rerank,
		FetchWeb:   opts.FetchWeb,
		Summarize:  opts.Summarize,
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	return fromPipelineResponse(resp), nil
}

func fromPipelineResponse(resp pipelineuc.Response) SearchResponse {
	results := make([]SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = SearchResult{
			Collection:   r.Candidate.Collection,
			Path:         r.Candidate.Path,
			Title:        r.Candidate.Title,
			Snippet:      r.Candidate.Snippet,
			Score:        r.Candidate.Score,
			Reranked:     r.Reranked,
			Relevance:    r.Relevance,
			BlendedScore: r.Blended,
		}
	}

	web := make([]WebResult, len(resp.WebResults))
	for i, wr := range resp.WebResults {
		web[i] = WebResult{Title: wr.Title, Snippet: wr.Snippet, URL: wr.URL}
	}

	return SearchResponse{
		Query:           resp.Query,
		ExpandedQueries: resp.ExpandedQueries,
		Results:         results,
		WebResults:      web,
		Summary:         resp.Summary,
		LatencyMS:       resp.LatencyMS,
	}
}
