// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation names recorded through Recorder.
const (
	// OpSearch is a complete search run.
	OpSearch = "search"
	// OpPlan is sample point planning.
	OpPlan = "plan"
	// OpPointFetch is one per-point observation fetch.
	OpPointFetch = "point_fetch"
	// OpHotspotFetch is one per-point hotspot fetch.
	OpHotspotFetch = "hotspot_fetch"
	// OpRouteFetch is a route service lookup.
	OpRouteFetch = "route_fetch"
	// OpReferenceLists is a life/year/month list lookup.
	OpReferenceLists = "reference_lists"
	// OpNotable is a regional notable sightings lookup.
	OpNotable = "notable"
	// OpLeaderboard is a regional top observers lookup.
	OpLeaderboard = "leaderboard"
	// OpDbQuery represents database query operations.
	OpDbQuery = "db_query"
	// OpDbInsert represents database insert operations.
	OpDbInsert = "db_insert"
	// OpDbDelete represents database delete operations.
	OpDbDelete = "db_delete"
	// OpTransaction represents database transaction operations.
	OpTransaction = "transaction"
)

// Label value constants used for metric labels.
const (
	// StatusSuccess marks an operation that completed.
	StatusSuccess = "success"
	// StatusError marks an operation that failed.
	StatusError = "error"
	// StatusPartial marks a search that finished with some failed points.
	StatusPartial = "partial"
	// StatusCancelled marks a search stopped by its context.
	StatusCancelled = "cancelled"
	// LabelHit is the cache result label for hits.
	LabelHit = "hit"
	// LabelMiss is the cache result label for misses.
	LabelMiss = "miss"
)

// Histogram bucket configuration constants.
// These define the base values and factors for exponential bucket generation.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1 is the starting bucket for count histograms.
	BucketStart1 = 1.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)

// ShutdownTimeout is the timeout for graceful shutdown operations.
const ShutdownTimeout = 5 * time.Second
