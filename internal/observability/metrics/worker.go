package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	prerenderTotal    *prometheus.CounterVec
	prerenderDuration *prometheus.HistogramVec
	prerenderInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	prerenderTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docstudio",
			Subsystem: "worker",
			Name:      "prerender_total",
			Help:      "Total preview pre-renders by status.",
		},
		[]string{"service", "status"},
	)
	prerenderDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "worker",
			Name:      "prerender_duration_seconds",
			Help:      "Preview pre-render duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	prerenderInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docstudio",
			Subsystem: "worker",
			Name:      "prerender_in_flight",
			Help:      "Number of in-flight preview pre-renders.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docstudio",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between output-ready publication and pre-render start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(prerenderTotal, prerenderDuration, prerenderInFlight, queueLag)

	return &WorkerMetrics{
		registry:        registry,
		prerenderTotal:    prerenderTotal,
		prerenderDuration: prerenderDuration,
		prerenderInFlight: prerenderInFlight,
		queueLag:        queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPrerender() {
	m.prerenderInFlight.Inc()
}

// FinishPrerender records the outcome; status is one of succeeded, failed
// or cached.
func (m *WorkerMetrics) FinishPrerender(service, status string, duration time.Duration) {
	m.prerenderInFlight.Dec()

	m.prerenderTotal.WithLabelValues(service, status).Inc()
	m.prerenderDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
