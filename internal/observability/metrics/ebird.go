package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/birdscout/internal/logger"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the metrics package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("telemetry")
	})
	return serviceLogger
}

// EBirdMetrics contains Prometheus metrics for eBird API traffic. It
// satisfies ebird.MetricsRecorder.
type EBirdMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheTotal      *prometheus.CounterVec
}

// NewEBirdMetrics creates and registers new eBird client metrics
func NewEBirdMetrics(registry *prometheus.Registry) (*EBirdMetrics, error) {
	m := &EBirdMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EBirdMetrics) initMetrics() {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_api_requests_total",
			Help: "Total number of eBird API requests",
		},
		[]string{"endpoint", "status_code"}, // status_code 0 means the request never got a response
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ebird_api_request_duration_seconds",
			Help: "Time taken for eBird API requests",
			// 10ms to ~40s covers cached CDN hits through slow region queries
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"endpoint"},
	)

	m.cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ebird_cache_lookups_total",
			Help: "Total number of eBird response cache lookups",
		},
		[]string{"endpoint", "result"}, // result: hit, miss
	)
}

// Describe implements the Collector interface
func (m *EBirdMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.cacheTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *EBirdMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.cacheTotal.Collect(ch)
}

// RecordRequest records one eBird HTTP round trip
func (m *EBirdMetrics) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCache records a response cache lookup
func (m *EBirdMetrics) RecordCache(endpoint string, hit bool) {
	result := LabelMiss
	if hit {
		result = LabelHit
	}
	m.cacheTotal.WithLabelValues(endpoint, result).Inc()
}
