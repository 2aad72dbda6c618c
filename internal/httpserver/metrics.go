package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type metrics struct {
	registry      *prometheus.Registry
	requestTotal  *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	rateLimitHits *prometheus.CounterVec
	authFailures  *prometheus.CounterVec
}

// newMetrics builds collectors on a private registry so servers never collide.
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userauth",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "userauth",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userauth",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userauth",
			Name:      "auth_failures_total",
			Help:      "Rejected login, refresh and bearer validation attempts",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(
		m.requestTotal,
		m.latency,
		m.rateLimitHits,
		m.authFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observe(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.requestTotal.WithLabelValues(method, route, code).Inc()
	m.latency.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

func withMetrics(m *metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		m.observe(r.Method, routeLabel(r.URL.Path), recorder.statusCode(), time.Since(start))
	})
}

var knownRoutes = map[string]struct{}{
	"/health":              {},
	"/metrics":             {},
	"/auth/login":          {},
	"/auth/refresh":        {},
	"/auth/profile":        {},
	"/users":               {},
	"/users/{id}":          {},
	"/users/{id}/password": {},
}

const otherRoute = "other"

// routeLabel collapses numeric path segments to {id} and maps anything that is
// not a registered route to "other", keeping label cardinality fixed.
func routeLabel(path string) string {
	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	route := strings.Join(segments, "/")
	if _, ok := knownRoutes[route]; !ok {
		return otherRoute
	}
	return route
}
