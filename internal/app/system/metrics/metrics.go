// Package metrics holds the Prometheus collectors for Loomos and the HTTP
// instrumentation middleware.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "loomos",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomos",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loomos",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	tenantResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomos",
			Subsystem: "tenant",
			Name:      "resolutions_total",
			Help:      "Tenant resolutions by the path that produced them (none for misses).",
		},
		[]string{"source"},
	)

	tenantLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loomos",
			Subsystem: "tenant",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of organization store lookups made during tenant resolution.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"by", "result"},
	)

	tenantCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomos",
			Subsystem: "tenant",
			Name:      "cache_requests_total",
			Help:      "Organization cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomos",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter, by limiter name.",
		},
		[]string{"limiter"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		tenantResolutions,
		tenantLookupDuration,
		tenantCache,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordResolution counts one tenant resolution. An empty source is a miss.
func RecordResolution(source string) {
	if source == "" {
		source = "none"
	}
	tenantResolutions.WithLabelValues(source).Inc()
}

// RecordLookup records one organization store lookup made during resolution.
// by is the key kind (id, subdomain, custom_domain); found reports a hit.
func RecordLookup(by string, found bool, duration time.Duration) {
	result := "miss"
	if found {
		result = "hit"
	}
	tenantLookupDuration.WithLabelValues(by, result).Observe(duration.Seconds())
}

// RecordCache counts an organization cache lookup: "hit", "miss" or "error".
func RecordCache(result string) {
	tenantCache.WithLabelValues(result).Inc()
}

// RecordRateLimited counts one request rejected by the named limiter.
func RecordRateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Routes are labeled by their chi route pattern to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
