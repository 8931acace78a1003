package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every spherenn metric.
const Namespace = "spherenn"

// Search and index Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_queries_total",
			Help:      "Total number of nearest-neighbour queries",
		},
		[]string{"engine", "mode", "status"},
	)

	SearchQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_query_duration_seconds",
			Help:      "Nearest-neighbour query duration in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"engine", "mode"},
	)

	SearchDistanceEvaluations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_distance_evaluations",
			Help:      "Metric evaluations per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"engine"},
	)

	IndexBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"engine"},
	)

	IndexedPoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "indexed_points",
			Help:      "Reference points held by cached indexes",
		},
		[]string{"set"},
	)

	ValidationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_runs_total",
			Help:      "Validation runs by outcome",
		},
		[]string{"engine", "result"}, // "pass" / "fail"
	)

	ValidationMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_mismatches_total",
			Help:      "Queries where index and brute force disagreed beyond tolerance",
		},
		[]string{"engine"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchQueryDuration)
	prometheus.MustRegister(SearchDistanceEvaluations)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexedPoints)
	prometheus.MustRegister(ValidationRunsTotal)
	prometheus.MustRegister(ValidationMismatchesTotal)
	searchMetricsRegistered = true
}
