package domain

// ExpansionSet is the outcome of the query expansion stage.
// Queries always starts with the original query, even when generation failed.
type ExpansionSet struct {
	Original string
	Queries  []string
	CacheHit bool
}

// Expanded reports whether any alternative phrasings were produced.
func (e ExpansionSet) Expanded() bool {
	return len(e.Queries) > 1
}
