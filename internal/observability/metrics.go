package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests            *prometheus.CounterVec
	LLMFallbacks        *prometheus.CounterVec
	LLMLatency          *prometheus.HistogramVec
	PersistenceFailures prometheus.Counter
	RotationWarnings    prometheus.Counter
	ContentUnavailable  *prometheus.CounterVec
	RateLimited         prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "requests_total",
			Help:      "Relay requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		LLMFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "llm_fallbacks_total",
			Help:      "Replies replaced by the fixed fallback text.",
		}, []string{"mode"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guideon",
			Name:      "llm_request_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		PersistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "persistence_failures_total",
			Help:      "Conversation turns that could not be stored.",
		}),
		RotationWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "rotation_warnings_total",
			Help:      "Rotation cursor load/save failures.",
		}),
		ContentUnavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "content_unavailable_total",
			Help:      "Requests for a theme with no quotes or verses.",
		}, []string{"kind"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guideon",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-user rate limit.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.LLMFallbacks,
		m.LLMLatency,
		m.PersistenceFailures,
		m.RotationWarnings,
		m.ContentUnavailable,
		m.RateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
