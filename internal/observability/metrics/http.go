package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal       *prometheus.CounterVec
	processingTotal    *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
	previewsTotal      *prometheus.CounterVec
	previewPages       *prometheus.HistogramVec
	previewDuration    *prometheus.HistogramVec
	breakerTransitions *prometheus.CounterVec
	activeSessions     prometheus.GaugeFunc
}

func NewHTTPServerMetrics(service string, activeSessions func() float64) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docstudio",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "workflow",
			Name:      "uploads_total",
			Help:      "Total upload attempts reaching the backend by outcome.",
		},
		[]string{"service", "status"},
	)
	processingTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "workflow",
			Name:      "processing_total",
			Help:      "Total processing requests by input source and outcome.",
		},
		[]string{"service", "source", "status"},
	)
	processingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "workflow",
			Name:      "processing_duration_seconds",
			Help:      "Backend processing call duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service", "source"},
	)
	previewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "preview",
			Name:      "renders_total",
			Help:      "Total preview renders by outcome.",
		},
		[]string{"service", "status"},
	)
	previewPages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "preview",
			Name:      "pages",
			Help:      "Distribution of rendered pages per preview.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	previewDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "preview",
			Name:      "duration_seconds",
			Help:      "Preview render duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "to"},
	)
	if activeSessions == nil {
		activeSessions = func() float64 { return 0 }
	}
	sessionsGauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "docstudio",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of live sessions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		activeSessions,
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		processingTotal,
		processingDuration,
		previewsTotal,
		previewPages,
		previewDuration,
		breakerTransitions,
		sessionsGauge,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadsTotal:       uploadsTotal,
		processingTotal:    processingTotal,
		processingDuration: processingDuration,
		previewsTotal:      previewsTotal,
		previewPages:       previewPages,
		previewDuration:    previewDuration,
		breakerTransitions: breakerTransitions,
		activeSessions:     sessionsGauge,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/session/alerts/"):
		return "/api/session/alerts/{id}"
	case strings.HasPrefix(path, "/api/session/preview/pages/"):
		return "/api/session/preview/pages/{n}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) ObserveUpload(status string) {
	m.uploadsTotal.WithLabelValues(m.service, labelOrUnknown(status)).Inc()
}

func (m *HTTPServerMetrics) ObserveProcessing(source domain.InputKind, status string, duration time.Duration) {
	src := labelOrUnknown(string(source))
	m.processingTotal.WithLabelValues(m.service, src, labelOrUnknown(status)).Inc()
	m.processingDuration.WithLabelValues(m.service, src).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) ObservePreview(status string, pages int, duration time.Duration) {
	status = labelOrUnknown(status)
	m.previewsTotal.WithLabelValues(m.service, status).Inc()
	m.previewDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
	if pages > 0 {
		m.previewPages.WithLabelValues(m.service).Observe(float64(pages))
	}
}

// ObserveBreaker matches resilience.StateObserver.
func (m *HTTPServerMetrics) ObserveBreaker(operation, _, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
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

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
