package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the web
// front end: inbound page requests, outbound upstream calls, and the
// bulk-reload fan-out size.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	upstreamErrors  prometheus.Counter
	upstreamLatency *prometheus.HistogramVec
	fanoutSize      prometheus.Histogram
}

// NewMetricsService registers the core collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of upstream API calls",
	}, []string{"method", "path", "status"})

	upstreamErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upstream_request_errors_total",
		Help: "Upstream API calls that failed or returned a non-2xx status",
	})

	upstreamLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	fanoutSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "performance_fanout_size",
		Help:    "Number of concurrent per-student fetches per bulk reload",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamTotal, upstreamErrors, upstreamLatency, fanoutSize, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		upstreamTotal:   upstreamTotal,
		upstreamErrors:  upstreamErrors,
		upstreamLatency: upstreamLatency,
		fanoutSize:      fanoutSize,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records inbound request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstream records one outbound API call. Status 0 means the
// request never completed.
func (m *MetricsService) ObserveUpstream(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	m.upstreamLatency.WithLabelValues(method, path).Observe(duration.Seconds())
	if status == 0 || status >= 400 {
		m.upstreamErrors.Inc()
	}
}

// ObserveFanout records the size of a bulk performance reload.
func (m *MetricsService) ObserveFanout(size int) {
	if m == nil {
		return
	}
	m.fanoutSize.Observe(float64(size))
}
