package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Model-call metrics. Outcome is "ok", "error", or "fallback".
var (
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memorykeeper_model_calls_total",
		Help: "Language-model calls by operation and outcome.",
	}, []string{"op", "outcome"})

	ModelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memorykeeper_model_call_duration_seconds",
		Help:    "Latency of language-model calls.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"op"})

	MemoriesCompiled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memorykeeper_memories_compiled_total",
		Help: "Memories successfully compiled from transcripts.",
	})

	MessagesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memorykeeper_chat_messages_stored_total",
		Help: "Chat messages persisted, by sender.",
	}, []string{"sender"})
)

// MetricsHandler exposes the Prometheus registry on a Gin route.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
