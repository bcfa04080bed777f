package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frontdesk_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frontdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	bookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontdesk_booking_conflicts_total",
		Help: "Bookings rejected because of a time conflict.",
	})

	integrityViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontdesk_integrity_violations",
		Help: "Overlapping Scheduled appointments found by the last integrity run.",
	})
)

// SetIntegrityViolations records the result of an integrity-worker run.
func SetIntegrityViolations(n int) {
	integrityViolations.Set(float64(n))
}

// MetricsMiddleware records request counts and latency per chi route.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
