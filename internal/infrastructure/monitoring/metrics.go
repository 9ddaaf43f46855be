package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
//
// Every recording method is safe on a nil *Metrics so components can be
// built without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Navigator metrics
	PagesActive     prometheus.Gauge
	PagesPending    prometheus.Gauge
	Pushes          *prometheus.CounterVec
	PagesPopped     prometheus.Counter
	PendingTimeouts prometheus.Counter
	TeardownErrors  prometheus.Counter
	Events          *prometheus.CounterVec
	Messages        *prometheus.CounterVec
	BroadcastFanout prometheus.Histogram

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Surface host metrics
	SurfaceRequests *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot
	mu       sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActivePages       int64   `json:"active_pages"`
	PendingPages      int64   `json:"pending_pages"`
	ActiveConnections int64   `json:"active_connections"`
	AvgLatencySeconds float64 `json:"avg_latency_seconds"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	totalDuration     float64
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigator_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigator_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Navigator metrics
		PagesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navigator_pages_active",
				Help: "Number of confirmed pages on the stack",
			},
		),
		PagesPending: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navigator_pages_pending",
				Help: "Number of pushed pages awaiting confirmation",
			},
		),
		Pushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_pushes_total",
				Help: "Push lifecycle transitions by outcome",
			},
			[]string{"outcome"},
		),
		PagesPopped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navigator_pages_popped_total",
				Help: "Total number of pages removed by pop",
			},
		),
		PendingTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navigator_pending_timeouts_total",
				Help: "Pending pages discarded after the confirmation timeout",
			},
		),
		TeardownErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "navigator_teardown_errors_total",
				Help: "Surface teardowns that reported an error",
			},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_events_total",
				Help: "Events delivered to page dispatchers",
			},
			[]string{"type", "status"},
		),
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_messages_total",
				Help: "Application messages posted between pages",
			},
			[]string{"mode", "status"},
		),
		BroadcastFanout: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "navigator_broadcast_fanout",
				Help:    "Pages reached per broadcast",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_service_calls_total",
				Help: "Total number of tool executions",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navigator_service_duration_seconds",
				Help:    "Tool execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),

		// Surface host metrics
		SurfaceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_surface_requests_total",
				Help: "Requests sent to the surface host",
			},
			[]string{"op", "status"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "navigator_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navigator_ws_messages_total",
				Help: "Total number of WebSocket frames",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "navigator_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler exposes this collector's registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a tool execution
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SetPagesActive sets the number of confirmed pages
func (m *Metrics) SetPagesActive(count int) {
	if m == nil {
		return
	}
	m.PagesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActivePages = int64(count)
	m.mu.Unlock()
}

// SetPagesPending sets the number of pending pages
func (m *Metrics) SetPagesPending(count int) {
	if m == nil {
		return
	}
	m.PagesPending.Set(float64(count))
	m.mu.Lock()
	m.snapshot.PendingPages = int64(count)
	m.mu.Unlock()
}

// RecordPush counts a push lifecycle outcome
func (m *Metrics) RecordPush(outcome string) {
	if m == nil {
		return
	}
	m.Pushes.WithLabelValues(outcome).Inc()
}

// RecordPop counts popped pages
func (m *Metrics) RecordPop(count int) {
	if m == nil {
		return
	}
	m.PagesPopped.Add(float64(count))
}

// RecordPendingTimeout counts an expired pending page
func (m *Metrics) RecordPendingTimeout() {
	if m == nil {
		return
	}
	m.PendingTimeouts.Inc()
}

// RecordTeardownError counts a failed surface teardown
func (m *Metrics) RecordTeardownError() {
	if m == nil {
		return
	}
	m.TeardownErrors.Inc()
}

// RecordEvent counts an event delivery attempt
func (m *Metrics) RecordEvent(eventType string, ok bool) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(eventType, status(ok)).Inc()
}

// RecordMessage counts a posted message
func (m *Metrics) RecordMessage(mode string, ok bool) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(mode, status(ok)).Inc()
}

// RecordBroadcast records how many pages a broadcast reached
func (m *Metrics) RecordBroadcast(delivered int) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues("broadcast", status(delivered > 0)).Inc()
	m.BroadcastFanout.Observe(float64(delivered))
}

// RecordSurfaceRequest counts a call to the surface host
func (m *Metrics) RecordSurfaceRequest(op string, ok bool) {
	if m == nil {
		return
	}
	m.SurfaceRequests.WithLabelValues(op, status(ok)).Inc()
}

// RecordWSMessage records a WebSocket frame
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
