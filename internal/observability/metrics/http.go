package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/tphakala/birdscout/internal/logger"
)

// SSE close reasons. Anything else is recorded as SSECloseReasonError.
const (
	SSECloseReasonClosed   = "closed"   // final event written
	SSECloseReasonCanceled = "canceled" // client disconnected
	SSECloseReasonError    = "error"
)

// HTTPMetrics tracks API requests and search progress streams.
type HTTPMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	streamsActive   prometheus.Gauge
	streams         *prometheus.CounterVec
	streamDuration  *prometheus.HistogramVec
	streamEvents    *prometheus.CounterVec
	streamErrors    *prometheus.CounterVec
	collectors      []prometheus.Collector
}

// NewHTTPMetrics creates the API collectors and registers them on registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		// path is the echo route template, never the raw URL
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "API requests by method, route and status code",
		}, []string{"method", "path", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "API requests that ended in an error, by error category",
		}, []string{"method", "path", "error_type"}),

		streamsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_sse_active_connections",
			Help: "Search progress streams currently open",
		}),
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_sse_connections_total",
			Help: "Search progress streams by lifecycle status",
		}, []string{"endpoint", "status"}),
		streamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "http_sse_connection_duration_seconds",
			Help: "How long search progress streams stay open",
			// 100ms to ~7min
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount12),
		}, []string{"endpoint"}),
		streamEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_sse_messages_sent_total",
			Help: "Events written to search progress streams",
		}, []string{"endpoint", "message_type"}),
		streamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_sse_errors_total",
			Help: "Write failures on search progress streams",
		}, []string{"endpoint", "error_type"}),
	}
	m.collectors = []prometheus.Collector{
		m.requests, m.requestDuration, m.requestErrors,
		m.streamsActive, m.streams, m.streamDuration, m.streamEvents, m.streamErrors,
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordHTTPRequest counts one finished request and its latency in seconds.
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordHTTPRequestError counts a request that returned an error.
func (m *HTTPMetrics) RecordHTTPRequestError(method, path, errorType string) {
	m.requestErrors.WithLabelValues(method, path, errorType).Inc()
}

// SSEConnectionStarted marks a progress stream as open.
func (m *HTTPMetrics) SSEConnectionStarted(endpoint string) {
	m.streamsActive.Inc()
	m.streams.WithLabelValues(endpoint, "established").Inc()
}

// SSEConnectionClosed marks a progress stream as closed after duration seconds.
func (m *HTTPMetrics) SSEConnectionClosed(endpoint string, duration float64, reason string) {
	if reason != SSECloseReasonClosed && reason != SSECloseReasonCanceled {
		reason = SSECloseReasonError
	}
	m.streamsActive.Dec()
	m.streams.WithLabelValues(endpoint, reason).Inc()
	m.streamDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordSSEMessageSent counts one event of messageType written to a stream.
func (m *HTTPMetrics) RecordSSEMessageSent(endpoint, messageType string) {
	m.streamEvents.WithLabelValues(endpoint, messageType).Inc()
}

// RecordSSEError counts a failed stream write.
func (m *HTTPMetrics) RecordSSEError(endpoint, errorType string) {
	m.streamErrors.WithLabelValues(endpoint, errorType).Inc()
}

// GetActiveSSEConnections reads the open stream gauge.
func (m *HTTPMetrics) GetActiveSSEConnections() float64 {
	var metric dto.Metric
	if err := m.streamsActive.Write(&metric); err != nil {
		GetLogger().Warn("failed to read active stream gauge", logger.Error(err))
		return 0
	}
	return metric.GetGauge().GetValue()
}
