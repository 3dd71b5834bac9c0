// Package metrics holds the Prometheus collectors of the API client and the
// stub backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by the gateway.
const (
	OutcomeOK              = "ok"
	OutcomeHTTPError       = "http_error"
	OutcomeNetworkError    = "network_error"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeInvalidResponse = "invalid_response"
)

// Gateway records per-endpoint request counts and latencies. A nil *Gateway
// records nothing.
type Gateway struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGateway builds the gateway collectors and registers them on reg when
// reg is not nil.
func NewGateway(reg prometheus.Registerer) *Gateway {
	g := &Gateway{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound API requests by endpoint, method and outcome.",
		}, []string{"endpoint", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wanderplan",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of outbound API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "method"}),
	}
	if reg != nil {
		reg.MustRegister(g.requests, g.duration)
	}
	return g
}

// Observe records one completed request.
func (g *Gateway) Observe(endpoint, method, outcome string, elapsed time.Duration) {
	if g == nil {
		return
	}
	g.requests.WithLabelValues(endpoint, method, outcome).Inc()
	g.duration.WithLabelValues(endpoint, method).Observe(elapsed.Seconds())
}

// Requests exposes the request counter, mainly for assertions in tests.
func (g *Gateway) Requests() *prometheus.CounterVec {
	return g.requests
}
