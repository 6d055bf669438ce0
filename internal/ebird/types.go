// Package ebird provides a client for the eBird API v2 observation and
// hotspot endpoints.
package ebird

import "time"

const (
	// MaxRadiusKm is the largest search radius the geo endpoints accept.
	MaxRadiusKm = 50.0

	// DefaultRadiusKm is used when a caller passes a non-positive radius.
	DefaultRadiusKm = 15.0

	// MaxBackDays is the longest lookback window the recent endpoints accept.
	MaxBackDays = 30

	// DefaultBackDays is used when a caller passes a non-positive lookback.
	DefaultBackDays = 30

	// DefaultMaxResults bounds region queries.
	DefaultMaxResults = 10000
)

// Config holds configuration for the eBird client
type Config struct {
	APIKey  string        `json:"api_key"`
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	// CacheTTL applies to observation responses.
	CacheTTL time.Duration `json:"cache_ttl"`
	// ReferenceCacheTTL applies to hotspot, species list and top observer
	// responses, which change far less often than sightings.
	ReferenceCacheTTL time.Duration `json:"reference_cache_ttl"`
	RateLimitMS       int           `json:"rate_limit_ms"` // Milliseconds between requests
	Debug             bool          `json:"debug"`
}

// Error represents an eBird API error response
type Error struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	return e.Detail
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://api.ebird.org/v2",
		Timeout:           30 * time.Second,
		CacheTTL:          15 * time.Minute, // Recent sightings change through the day
		ReferenceCacheTTL: 24 * time.Hour,
		RateLimitMS:       100, // 10 requests per second max
	}
}

// Metrics represents eBird client performance metrics
type Metrics struct {
	APICalls      int64         `json:"api_calls"`
	CacheHits     int64         `json:"cache_hits"`
	CacheMisses   int64         `json:"cache_misses"`
	APIErrors     int64         `json:"api_errors"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// MetricsRecorder receives per-request telemetry. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	RecordRequest(endpoint string, statusCode int, duration time.Duration)
	RecordCache(endpoint string, hit bool)
}

// ClampRadius limits radiusKm to (0, MaxRadiusKm]. Non-positive values
// become DefaultRadiusKm.
func ClampRadius(radiusKm float64) float64 {
	switch {
	case radiusKm <= 0 || radiusKm != radiusKm:
		return DefaultRadiusKm
	case radiusKm > MaxRadiusKm:
		return MaxRadiusKm
	default:
		return radiusKm
	}
}

// ClampBackDays limits days to [1, MaxBackDays]. Non-positive values become
// DefaultBackDays.
func ClampBackDays(days int) int {
	switch {
	case days <= 0:
		return DefaultBackDays
	case days > MaxBackDays:
		return MaxBackDays
	default:
		return days
	}
}
