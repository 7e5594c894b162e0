package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	CompletionCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_call_latency_ms",
			Help:    "Completion API call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"status"},
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Document store operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	SuggestionsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggestions_generated_total",
			Help: "Step suggestions returned to callers",
		},
	)
)

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func RecordCompletionCall(status string, d time.Duration) {
	CompletionCallLatency.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}

// RecordStoreOp counts one store call; err decides the outcome label.
func RecordStoreOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreOperations.WithLabelValues(operation, outcome).Inc()
}
