package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Server records requests handled by the stub backend. A nil *Server
// records nothing.
type Server struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewServer builds the server collectors and registers them on reg when
// reg is not nil.
func NewServer(reg prometheus.Registerer) *Server {
	s := &Server{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wanderplan",
			Subsystem: "mockapi",
			Name:      "requests_total",
			Help:      "Handled requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wanderplan",
			Subsystem: "mockapi",
			Name:      "request_duration_seconds",
			Help:      "Handler latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg != nil {
		reg.MustRegister(s.requests, s.duration)
	}
	return s
}

// Observe records one handled request.
func (s *Server) Observe(route, method string, status int, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	s.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Requests exposes the request counter, mainly for assertions in tests.
func (s *Server) Requests() *prometheus.CounterVec {
	return s.requests
}
