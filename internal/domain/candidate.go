package domain

// Candidate is a single lexically-ranked search hit produced by the index.
// Score is the normalized BM25 score: positive, higher is better.
type Candidate struct {
	Collection string
	Path       string
	Title      string
	Snippet    string
	Score      float64
	Query      string // the query (original or expansion) that produced this hit
}

// ID returns the deduplication identity of the candidate.
func (c Candidate) ID() string {
	return c.Collection + "/" + c.Path
}

// WebResult is a supplementary web search hit. It never participates in
// fusion, reranking, or blending.
type WebResult struct {
	Title   string
	Snippet string
	URL     string
}
