package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics contains Prometheus metrics for search runs. It implements
// Recorder so the search pipeline can stay unaware of Prometheus.
type SearchMetrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	samplePoints      *prometheus.HistogramVec
	sightingsTotal    *prometheus.CounterVec
}

// NewSearchMetrics creates and registers new search metrics
func NewSearchMetrics(registry *prometheus.Registry) (*SearchMetrics, error) {
	m := &SearchMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SearchMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_operations_total",
			Help: "Total number of search pipeline operations",
		},
		[]string{"operation", "status"}, // operation: search, point_fetch, hotspot_fetch, route_fetch
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_operation_duration_seconds",
			Help:    "Time taken for search pipeline operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~40s
		},
		[]string{"operation"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_errors_total",
			Help: "Total number of search pipeline errors",
		},
		[]string{"operation", "error_type"},
	)

	m.samplePoints = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_sample_points",
			Help:    "Number of sample points per search",
			Buckets: prometheus.ExponentialBuckets(BucketStart1, BucketFactor2, BucketCount10), // 1 to 512
		},
		[]string{"mode"},
	)

	m.sightingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_sightings_total",
			Help: "Total number of sightings handled by searches",
		},
		[]string{"mode", "stage"}, // stage: raw, unique
	)
}

func (m *SearchMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.samplePoints,
		m.sightingsTotal,
	}
}

// Describe implements the Collector interface
func (m *SearchMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *SearchMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordOperation implements Recorder
func (m *SearchMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *SearchMetrics) RecordDuration(operation string, seconds float64) {
	m.operationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *SearchMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordSearchSize records how many points a search planned and how many
// sightings survived deduplication.
func (m *SearchMetrics) RecordSearchSize(mode string, points, raw, unique int) {
	m.samplePoints.WithLabelValues(mode).Observe(float64(points))
	m.sightingsTotal.WithLabelValues(mode, "raw").Add(float64(raw))
	m.sightingsTotal.WithLabelValues(mode, "unique").Add(float64(unique))
}
