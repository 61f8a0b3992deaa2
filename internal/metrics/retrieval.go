package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and vector store Prometheus metrics.
var (
	FusedResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fused_results",
			Help:      "Number of entities produced by rank fusion before eligibility",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	EligibilityExclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_exclusions_total",
			Help:      "Ranked entities removed by eligibility filtering",
		},
		[]string{"kind", "reason"}, // reason: "missing_record" / "deadline_passed" / "deadline_unparsable" / "attribute_mismatch"
	)

	OrphanVectorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_vectors_total",
			Help:      "Vectors left behind by failed cleanup",
		},
		[]string{"namespace"},
	)

	VectorWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vector_write_duration_seconds",
			Help:      "Duration of embedding plus upsert for one subspace vector",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"namespace", "status"},
	)

	SubspaceQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subspace_query_duration_seconds",
			Help:      "Duration of one nearest-neighbour query against a subspace",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"namespace"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(FusedResults)
	prometheus.MustRegister(EligibilityExclusionsTotal)
	prometheus.MustRegister(OrphanVectorsTotal)
	prometheus.MustRegister(VectorWriteDuration)
	prometheus.MustRegister(SubspaceQueryDuration)
	retrievalMetricsRegistered = true
}
