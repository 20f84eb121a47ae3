package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Model call metrics, labelled by provider, model and operation ("embed" or "generate").
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnsp",
			Name:      "llm_requests_total",
			Help:      "Total number of model requests",
		},
		[]string{"provider", "model", "operation", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bnsp",
			Name:      "llm_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model", "operation"},
	)

	LLMRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnsp",
			Name:      "llm_retries_total",
			Help:      "Model requests retried after a transient failure",
		},
		[]string{"operation"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnsp",
			Name:      "embedding_cache_total",
			Help:      "Query embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerOnce sync.Once

// RegisterLLMMetrics registers the model call and embedding cache collectors.
// Safe to call more than once.
func RegisterLLMMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(LLMRequestsTotal)
		prometheus.MustRegister(LLMRequestDuration)
		prometheus.MustRegister(LLMRetriesTotal)
		prometheus.MustRegister(EmbeddingCacheTotal)
	})
}
