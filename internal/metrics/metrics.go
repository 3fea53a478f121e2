// Package metrics provides Prometheus instrumentation for the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts inbound requests by route pattern and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pplxproxy_requests_total",
			Help: "Total number of inbound requests by route and status.",
		},
		[]string{"route", "status"},
	)

	// RequestLatency tracks end-to-end inbound latency in seconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pplxproxy_request_latency_seconds",
			Help:    "End-to-end request latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	// ActiveRequests tracks the number of currently in-flight requests.
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pplxproxy_active_requests",
			Help: "Number of currently in-flight requests.",
		},
	)

	// UpstreamRequestsTotal counts calls to Perplexity by operation
	// ("ask" or "search") and outcome ("success" or "error").
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pplxproxy_upstream_requests_total",
			Help: "Total number of upstream provider calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// UpstreamLatency tracks how long each upstream call took.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pplxproxy_upstream_latency_seconds",
			Help:    "Upstream provider call latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// TokenUsageTotal tracks tokens reported by the provider's usage block.
	TokenUsageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pplxproxy_token_usage_total",
			Help: "Total number of tokens reported by the provider.",
		},
		[]string{"model", "direction"}, // direction: "input" or "output"
	)
)

// RecordUpstream records one upstream call.
func RecordUpstream(operation string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordTokens adds prompt and completion token counts for a model.
// Zero counts are skipped so absent usage blocks don't create series.
func RecordTokens(model string, prompt, completion float64) {
	if prompt > 0 {
		TokenUsageTotal.WithLabelValues(model, "input").Add(prompt)
	}
	if completion > 0 {
		TokenUsageTotal.WithLabelValues(model, "output").Add(completion)
	}
}
