package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics collects the request-level metrics exposed on /metrics.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ingestOutcomesTotal *prometheus.CounterVec
	resolutionsTotal    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arkiv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arkiv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arkiv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ingestOutcomesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arkiv",
			Subsystem: "ingest",
			Name:      "outcomes_total",
			Help:      "Total upload attempts by terminal pipeline state.",
		},
		[]string{"service", "state"},
	)
	resolutionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arkiv",
			Subsystem: "ingest",
			Name:      "resolutions_total",
			Help:      "Total duplicate resolutions by chosen strategy.",
		},
		[]string{"service", "resolution"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ingestOutcomesTotal,
		resolutionsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		ingestOutcomesTotal: ingestOutcomesTotal,
		resolutionsTotal:    resolutionsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordIngestOutcome counts a terminal pipeline state (committed, rejected,
// awaiting_resolution).
func (m *HTTPServerMetrics) RecordIngestOutcome(service, state string) {
	m.ingestOutcomesTotal.WithLabelValues(service, state).Inc()
}

// RecordResolution counts a duplicate resolution by strategy.
func (m *HTTPServerMetrics) RecordResolution(service, resolution string) {
	m.resolutionsTotal.WithLabelValues(service, resolution).Inc()
}

// normalizePath collapses id segments so metric cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/folders/"):
		rest := strings.TrimPrefix(path, "/api/folders/")
		if suffix := idSuffix(rest); suffix != "" {
			return "/api/folders/{id}/" + suffix
		}
		if rest != "" && rest != "tree" {
			return "/api/folders/{id}"
		}
		return path
	case strings.HasPrefix(path, "/api/documents/"):
		rest := strings.TrimPrefix(path, "/api/documents/")
		if suffix := idSuffix(rest); suffix != "" {
			return "/api/documents/{id}/" + suffix
		}
		if rest != "" && rest != "upload" {
			return "/api/documents/{id}"
		}
		return path
	default:
		return path
	}
}

func idSuffix(rest string) string {
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
