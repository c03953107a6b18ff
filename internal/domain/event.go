package domain

// SearchEvent is the per-invocation telemetry record emitted by the
// pipeline. Recording is fire-and-forget: sink failures never fail a search.
type SearchEvent struct {
	QueryFingerprint  string
	QueryLength       int
	CollectionFilter  string
	ResultCount       int
	TopScore          float64
	LatencyMS         int64
	UsedExpansion     bool
	UsedRerank        bool
	ExpansionCacheHit bool
	RerankCacheHits   int
	Error             string
}

// MetricsStats is the aggregate view over recorded search events.
type MetricsStats struct {
	TotalSearches     int64
	AvgLatencyMS      float64
	AvgResultCount    float64
	ExpansionSearches int64
	RerankSearches    int64
	ExpansionCacheHit int64
	RerankCacheHits   int64
	ErrorCount        int64
}
