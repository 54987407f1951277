// Package metrics provides Prometheus instrumentation for the platform API.
//
// Metrics registered here:
//
//	brickfund_http_requests_total            counter: requests by method, route, status
//	brickfund_http_request_duration_seconds  histogram: latency by method, route
//	brickfund_auth_events_total              counter: register/login/verify by result
//	brickfund_handoff_events_total           counter: hand-off issuance and uploads
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brickfund_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "brickfund_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// AuthEvents counts auth events (register, login, verify_email) by result.
var AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brickfund_auth_events_total",
	Help: "Auth events by type and result.",
}, []string{"event", "result"})

// HandoffEvents counts identity hand-off events: token issued or reused,
// image uploaded per side.
var HandoffEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brickfund_handoff_events_total",
	Help: "Identity hand-off events.",
}, []string{"event"})

// Handler exposes the default registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. It must wrap the ServeMux
// directly so the matched route pattern is visible after the call; unmatched
// requests are labelled "unmatched" to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
