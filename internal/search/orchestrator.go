package search

import (
	"context"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/ranking"
	"github.com/tphakala/birdscout/internal/sightings"
)

// Snapshot is the state of a running search after a checkpoint. Raw is a
// prefix of the final raw log and Unique is derived from exactly that prefix.
// Both slices are shared with the orchestrator and must not be modified.
type Snapshot struct {
	Completed    int                       `json:"completed"`
	Total        int                       `json:"total"`
	FailedPoints int                       `json:"failedPoints"`
	Final        bool                      `json:"final"`
	Raw          []observation.Observation `json:"-"`
	Unique       []observation.Observation `json:"unique"`
}

// ProgressFunc receives snapshots synchronously on the orchestrator's goroutine.
type ProgressFunc func(Snapshot)

// RunOptions parameterize a single orchestrator run.
type RunOptions struct {
	RadiusKm     float64
	LookbackDays int
	Strategy     sightings.KeyStrategy
	// SnapshotStride emits a snapshot every Nth point. The first and last
	// points always emit. Values below 1 mean every point.
	SnapshotStride int
	// HotspotStride fetches hotspots at every Nth point starting with the
	// first. Zero disables hotspot fetches.
	HotspotStride int
}

// RunResult is the outcome of visiting every sample point.
type RunResult struct {
	Raw             []observation.Observation
	Hotspots        []observation.Hotspot
	Completed       int
	FailedPoints    []int
	HotspotFailures int
}

// Orchestrator visits sample points one at a time and accumulates the raw log.
type Orchestrator struct {
	observations ObservationFetcher
	hotspots     HotspotFetcher
	recorder     metrics.Recorder
	log          logger.Logger
}

// NewOrchestrator returns an orchestrator. hotspots may be nil.
func NewOrchestrator(observations ObservationFetcher, hotspots HotspotFetcher, recorder metrics.Recorder) *Orchestrator {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Orchestrator{
		observations: observations,
		hotspots:     hotspots,
		recorder:     recorder,
		log:          GetLogger(),
	}
}

// Run fetches every point in order. A failed point is logged and skipped.
// When ctx is cancelled Run stops before the next point and returns what was
// accumulated so far together with a cancellation error.
func (o *Orchestrator) Run(ctx context.Context, points []geo.Coordinate, opts RunOptions, progress ProgressFunc) (*RunResult, error) {
	log := o.log.WithContext(ctx)
	result := &RunResult{}
	stride := max(opts.SnapshotStride, 1)

	for i, point := range points {
		if err := ctx.Err(); err != nil {
			log.Info("search cancelled",
				logger.Int("completed", result.Completed),
				logger.Int("total", len(points)))
			return result, errors.New(err).
				Component("search").
				Category(errors.CategoryCancellation).
				Context("completed", result.Completed).
				Context("total", len(points)).
				Build()
		}

		o.fetchPoint(ctx, log, i, point, opts, result)

		if opts.HotspotStride > 0 && o.hotspots != nil && i%opts.HotspotStride == 0 {
			o.fetchHotspots(ctx, log, i, point, opts.RadiusKm, result)
		}

		result.Completed = i + 1
		last := i == len(points)-1
		if progress != nil && (i == 0 || last || result.Completed%stride == 0) {
			progress(o.snapshot(result, len(points), opts.Strategy, last))
		}
	}

	result.Hotspots = ranking.UniqueHotspots(result.Hotspots)
	return result, nil
}

func (o *Orchestrator) fetchPoint(ctx context.Context, log logger.Logger, index int, point geo.Coordinate, opts RunOptions, result *RunResult) {
	start := time.Now()
	batch, err := o.observations.RecentObservations(ctx, point, opts.RadiusKm, opts.LookbackDays)
	o.recorder.RecordDuration(metrics.OpPointFetch, time.Since(start).Seconds())
	if err != nil {
		result.FailedPoints = append(result.FailedPoints, index)
		o.recorder.RecordOperation(metrics.OpPointFetch, metrics.StatusError)
		o.recorder.RecordError(metrics.OpPointFetch, string(errorCategory(err, errors.CategoryFetch)))
		log.Warn("point fetch failed",
			logger.Int("point_index", index),
			logger.String("point", point.String()),
			logger.Error(err))
		return
	}

	o.recorder.RecordOperation(metrics.OpPointFetch, metrics.StatusSuccess)
	result.Raw = append(result.Raw, batch...)
	log.Debug("point fetched",
		logger.Int("point_index", index),
		logger.Int("observations", len(batch)),
		logger.Int("raw_total", len(result.Raw)))
}

func (o *Orchestrator) fetchHotspots(ctx context.Context, log logger.Logger, index int, point geo.Coordinate, radiusKm float64, result *RunResult) {
	start := time.Now()
	batch, err := o.hotspots.Hotspots(ctx, point, radiusKm)
	o.recorder.RecordDuration(metrics.OpHotspotFetch, time.Since(start).Seconds())
	if err != nil {
		result.HotspotFailures++
		o.recorder.RecordOperation(metrics.OpHotspotFetch, metrics.StatusError)
		o.recorder.RecordError(metrics.OpHotspotFetch, string(errorCategory(err, errors.CategoryFetch)))
		log.Warn("hotspot fetch failed",
			logger.Int("point_index", index),
			logger.String("point", point.String()),
			logger.Error(err))
		return
	}
	o.recorder.RecordOperation(metrics.OpHotspotFetch, metrics.StatusSuccess)
	result.Hotspots = ranking.UniqueHotspots(append(result.Hotspots, batch...))
}

func (o *Orchestrator) snapshot(result *RunResult, total int, strategy sightings.KeyStrategy, final bool) Snapshot {
	raw := result.Raw[:len(result.Raw):len(result.Raw)]
	return Snapshot{
		Completed:    result.Completed,
		Total:        total,
		FailedPoints: len(result.FailedPoints),
		Final:        final,
		Raw:          raw,
		Unique:       sightings.Deduplicate(raw, strategy),
	}
}

// errorCategory returns the category of an enhanced error, or fallback.
func errorCategory(err error, fallback errors.ErrorCategory) errors.ErrorCategory {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) && enhanced.Category != "" {
		return enhanced.Category
	}
	return fallback
}
