package chi

import (
	"github.com/localseek/localseek/internal/domain"
	pipelineuc "github.com/localseek/localseek/internal/usecase/pipeline"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeCollectionNotFound = "collection_not_found"
	codeCollectionExists   = "collection_already_exists"
	codeSearchFailed       = "search_failed"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type registerCollectionRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Glob string `json:"glob,omitempty"`
}

type registerCollectionResponse struct {
	Collection collectionJSON `json:"collection"`
	Indexed    int            `json:"indexed"`
}

type collectionJSON struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Glob     string `json:"glob"`
	DocCount int    `json:"doc_count"`
}

type collectionListResponse struct {
	Items []collectionJSON `json:"items"`
}

type searchResultJSON struct {
	Collection   string   `json:"collection"`
	Path         string   `json:"path"`
	Title        string   `json:"title"`
	Snippet      string   `json:"snippet"`
	Score        float64  `json:"score"`
	BlendedScore *float64 `json:"blended_score,omitempty"`
	Relevance    *float64 `json:"relevance,omitempty"`
}

type searchResponseJSON struct {
	Query           string             `json:"query"`
	ExpandedQueries []string           `json:"expanded_queries,omitempty"`
	Count           int                `json:"count"`
	Summary         string             `json:"summary,omitempty"`
	Results         []searchResultJSON `json:"results"`
	WebResults      []webResultJSON    `json:"web_results,omitempty"`
	LatencyMS       int64              `json:"latency_ms"`
}

type webResultJSON struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type statsResponse struct {
	Collections int              `json:"collections"`
	Documents   int              `json:"documents"`
	Search      *searchStatsJSON `json:"search,omitempty"`
}

type searchStatsJSON struct {
	TotalSearches     int64   `json:"total_searches"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	AvgResultCount    float64 `json:"avg_result_count"`
	ExpansionSearches int64   `json:"expansion_searches"`
	RerankSearches    int64   `json:"rerank_searches"`
	ExpansionCacheHit int64   `json:"expansion_cache_hits"`
	RerankCacheHits   int64   `json:"rerank_cache_hits"`
	ErrorCount        int64   `json:"error_count"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func collectionToJSON(c domain.Collection) collectionJSON {
	return collectionJSON{
		Name:     c.Name,
		Path:     c.Path,
		Glob:     c.Glob,
		DocCount: c.DocCount,
	}
}

func searchResponseToJSON(resp pipelineuc.Response) searchResponseJSON {
	results := make([]searchResultJSON, len(resp.Results))
	for i, r := range resp.Results {
		item := searchResultJSON{
			Collection: r.Collection,
			Path:       r.Path,
			Title:      r.Title,
			Snippet:    r.Snippet,
			Score:      r.Score,
		}
		if r.Reranked {
			blended, relevance := r.Blended, r.Relevance
			item.BlendedScore = &blended
			item.Relevance = &relevance
		}
		results[i] = item
	}

	var web []webResultJSON
	for _, wr := range resp.WebResults {
		web = append(web, webResultJSON{Title: wr.Title, Snippet: wr.Snippet, URL: wr.URL})
	}

	return searchResponseJSON{
		Query:           resp.Query,
		ExpandedQueries: resp.ExpandedQueries,
		Count:           len(results),
		Summary:         resp.Summary,
		Results:         results,
		WebResults:      web,
		LatencyMS:       resp.LatencyMS,
	}
}
