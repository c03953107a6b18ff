package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localseek",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"collection", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localseek",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collection"},
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localseek",
			Name:      "search_results_returned",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50, 100},
		},
		[]string{"collection"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localseek",
			Name:      "llm_requests_total",
			Help:      "Total number of language model requests",
		},
		[]string{"operation", "status"}, // operation: "expand" / "rerank" / "summarize"
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localseek",
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	ExpandCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localseek",
			Name:      "expand_cache_total",
			Help:      "Query expansion cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RerankCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localseek",
			Name:      "rerank_cache_total",
			Help:      "Relevance score cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsReturned)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(ExpandCacheTotal)
	prometheus.MustRegister(RerankCacheTotal)
	searchMetricsRegistered = true
}
