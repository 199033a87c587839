package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopchat"

// Retrieval and chat Prometheus metrics.
var (
	RetrievalCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates_total",
			Help:      "Candidates returned by each retrieval channel",
		},
		[]string{"channel"}, // "lexical" / "semantic"
	)

	RetrievalDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_degraded_total",
			Help:      "Requests served lexical-only because embedding failed",
		},
	)

	RetrievalMalformedEmbeddingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_malformed_embeddings_total",
			Help:      "Stored embeddings skipped during semantic retrieval",
		},
		[]string{"reason"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_phase_duration_seconds",
			Help:      "Retrieval phase duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"channel"},
	)

	ChatIntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_intent_total",
			Help:      "Chat requests by classified intent",
		},
		[]string{"intent"},
	)
)

var retrievalMetricsOnce sync.Once

// RegisterRetrievalMetrics registers retrieval and chat metrics. Safe to call more than once.
func RegisterRetrievalMetrics() {
	retrievalMetricsOnce.Do(func() {
		prometheus.MustRegister(
			RetrievalCandidatesTotal,
			RetrievalDegradedTotal,
			RetrievalMalformedEmbeddingsTotal,
			RetrievalDuration,
			ChatIntentTotal,
		)
	})
}
