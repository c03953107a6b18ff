package rerank

// Blend weighting schedule. Lexical scoring is trusted most at the top of
// the lexical ranking and least deep in the tail.
const (
	weightTop  = 0.75 // lexical ranks 1-3
	weightMid  = 0.60 // lexical ranks 4-10
	weightTail = 0.40 // lexical ranks 11+

	// assumedMaxLexical normalizes the unbounded lexical score scale.
	assumedMaxLexical = 15.0
)

// lexicalWeight returns the lexical trust weight for a 1-based pre-rerank rank.
func lexicalWeight(lexicalRank int) float64 {
	switch {
	case lexicalRank <= 3:
		return weightTop
	case lexicalRank <= 10:
		return weightMid
	default:
		return weightTail
	}
}

// blend combines the lexical score and the 0-10 relevance score into one
// figure in [0,1].
func blend(lexicalScore, relevance float64, lexicalRank int) float64 {
	normLexical := lexicalScore / assumedMaxLexical
	if normLexical > 1 {
		normLexical = 1
	}
	if normLexical < 0 {
		normLexical = 0
	}
	normRelevance := relevance / 10

	w := lexicalWeight(lexicalRank)
	return w*normLexical + (1-w)*normRelevance
}
