package domain

// RerankedCandidate is a candidate after model-based rescoring and blending.
type RerankedCandidate struct {
	Candidate

	// Relevance is the raw model score on the 0-10 scale (5.0 when the
	// model was unavailable or returned too few scores).
	Relevance float64

	// LexicalRank is the candidate's 1-based position before reranking.
	LexicalRank int

	// Blended combines the normalized lexical and relevance signals under
	// rank-dependent trust weighting.
	Blended float64
}
