// Package search runs the observation search pipeline: plan sample points,
// fetch them one at a time, then deduplicate, aggregate, rank and classify
// the accumulated raw log.
package search

import (
	"context"
	"sync"

	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observation"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("search")
	})
	return serviceLogger
}

// ObservationFetcher returns recent sightings within radiusKm of point.
type ObservationFetcher interface {
	RecentObservations(ctx context.Context, point geo.Coordinate, radiusKm float64, backDays int) ([]observation.Observation, error)
}

// HotspotFetcher returns hotspots within radiusKm of point.
type HotspotFetcher interface {
	Hotspots(ctx context.Context, point geo.Coordinate, radiusKm float64) ([]observation.Hotspot, error)
}

// RegionFetcher returns recent sightings for a whole region.
type RegionFetcher interface {
	RegionObservations(ctx context.Context, region string, backDays, maxResults int) ([]observation.Observation, error)
}

// sizeRecorder is implemented by recorders that also track search volume.
type sizeRecorder interface {
	RecordSearchSize(mode string, points, raw, unique int)
}
