package search

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/birdscout/internal/checklists"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/planner"
	"github.com/tphakala/birdscout/internal/ranking"
	"github.com/tphakala/birdscout/internal/routing"
	"github.com/tphakala/birdscout/internal/sightings"
	"github.com/tphakala/birdscout/internal/targets"
)

const (
	DefaultRadiusKm       = 15.0
	MaxRadiusKm           = 50.0
	DefaultLookbackDays   = 30
	MaxLookbackDays       = 30
	DefaultRegionResults  = 10000
	RegionHotspotRadiusKm = 50.0
)

// Strides controls how often the orchestrator publishes snapshots and
// fetches hotspots for each shape.
type Strides struct {
	SnapshotPoint int `json:"snapshotPoint" yaml:"snapshotPoint"`
	SnapshotBox   int `json:"snapshotBox" yaml:"snapshotBox"`
	SnapshotPath  int `json:"snapshotPath" yaml:"snapshotPath"`
	HotspotPoint  int `json:"hotspotPoint" yaml:"hotspotPoint"`
	HotspotBox    int `json:"hotspotBox" yaml:"hotspotBox"`
	HotspotPath   int `json:"hotspotPath" yaml:"hotspotPath"`
}

// DefaultStrides snapshots every 5th grid point and every 3rd path point,
// and fetches hotspots every 3rd grid point and every 2nd path point.
func DefaultStrides() Strides {
	return Strides{
		SnapshotPoint: 1,
		SnapshotBox:   5,
		SnapshotPath:  3,
		HotspotPoint:  1,
		HotspotBox:    3,
		HotspotPath:   2,
	}
}

func (s Strides) forShape(kind planner.ShapeKind) (snapshot, hotspot int) {
	switch kind {
	case planner.ShapeBox:
		return s.SnapshotBox, s.HotspotBox
	case planner.ShapePath:
		return s.SnapshotPath, s.HotspotPath
	default:
		return s.SnapshotPoint, s.HotspotPoint
	}
}

// Config holds search defaults and limits.
type Config struct {
	Planner             planner.Options
	DefaultRadiusKm     float64
	MaxRadiusKm         float64
	DefaultLookbackDays int
	MaxLookbackDays     int
	TopN                int
	DefaultListMode     targets.ListMode
	Thresholds          targets.Thresholds
	Strides             Strides
	RegionMaxResults    int
}

// DefaultConfig returns the stock search configuration.
func DefaultConfig() Config {
	return Config{
		Planner:             planner.DefaultOptions(),
		DefaultRadiusKm:     DefaultRadiusKm,
		MaxRadiusKm:         MaxRadiusKm,
		DefaultLookbackDays: DefaultLookbackDays,
		MaxLookbackDays:     MaxLookbackDays,
		TopN:                ranking.DefaultTopN,
		DefaultListMode:     targets.ModeAll,
		Thresholds:          targets.DefaultThresholds(),
		Strides:             DefaultStrides(),
		RegionMaxResults:    DefaultRegionResults,
	}
}

// Dependencies are the external collaborators of a search. Only
// Observations is required.
type Dependencies struct {
	Observations ObservationFetcher
	Hotspots     HotspotFetcher
	Regions      RegionFetcher
	Router       routing.Router
	References   targets.ReferenceSource
	Recorder     metrics.Recorder
}

// Stats summarizes how a search went.
type Stats struct {
	SamplePoints    int   `json:"samplePoints" yaml:"samplePoints"`
	RequestedPoints int   `json:"requestedPoints" yaml:"requestedPoints"`
	Truncated       bool  `json:"truncated" yaml:"truncated"`
	FailedPoints    int   `json:"failedPoints" yaml:"failedPoints"`
	HotspotFailures int   `json:"hotspotFailures" yaml:"hotspotFailures"`
	RawObservations int   `json:"rawObservations" yaml:"rawObservations"`
	UniqueSightings int   `json:"uniqueSightings" yaml:"uniqueSightings"`
	Species         int   `json:"species" yaml:"species"`
	Checklists      int   `json:"checklists" yaml:"checklists"`
	Targets         int   `json:"targets" yaml:"targets"`
	ElapsedMs       int64 `json:"elapsedMs" yaml:"elapsedMs"`
}

// Result is the terminal output of a search.
type Result struct {
	ID              string                       `json:"id" yaml:"id"`
	Mode            Mode                         `json:"mode" yaml:"mode"`
	ListMode        targets.ListMode             `json:"listMode" yaml:"listMode"`
	SpeciesCode     string                       `json:"speciesCode,omitempty" yaml:"speciesCode,omitempty"`
	RadiusKm        float64                      `json:"radiusKm" yaml:"radiusKm"`
	LookbackDays    int                          `json:"lookbackDays" yaml:"lookbackDays"`
	UniqueSightings []observation.Observation    `json:"uniqueSightings" yaml:"uniqueSightings"`
	Checklists      []checklists.Checklist       `json:"checklists" yaml:"checklists"`
	Hotspots        []observation.Hotspot        `json:"hotspots" yaml:"hotspots"`
	Targets         []targets.Target             `json:"targets" yaml:"targets"`
	Frequencies     map[string]targets.Frequency `json:"frequencies" yaml:"frequencies"`
	Route           *routing.Route               `json:"route,omitempty" yaml:"route,omitempty"`
	Stats           Stats                        `json:"stats" yaml:"stats"`
	Summary         Summary                      `json:"summary" yaml:"summary"`
	Insights        *Insights                    `json:"insights,omitempty" yaml:"insights,omitempty"`
	// Raw is the full raw log the aggregates were built from.
	Raw []observation.Observation `json:"-" yaml:"-"`
}

// Service runs searches against its collaborators.
type Service struct {
	cfg          Config
	deps         Dependencies
	planner      *planner.Planner
	orchestrator *Orchestrator
	classifier   *targets.Classifier
	log          logger.Logger
}

// NewService validates cfg and wires the pipeline.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	if deps.Observations == nil {
		return nil, errors.Newf("search requires an observation fetcher").
			Component("search").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NopRecorder{}
	}
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = MaxRadiusKm
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = math.Min(DefaultRadiusKm, cfg.MaxRadiusKm)
	}
	if cfg.MaxLookbackDays <= 0 {
		cfg.MaxLookbackDays = MaxLookbackDays
	}
	if cfg.DefaultLookbackDays <= 0 {
		cfg.DefaultLookbackDays = min(DefaultLookbackDays, cfg.MaxLookbackDays)
	}
	if cfg.RegionMaxResults <= 0 {
		cfg.RegionMaxResults = DefaultRegionResults
	}
	if cfg.DefaultListMode == "" {
		cfg.DefaultListMode = targets.ModeAll
	}

	return &Service{
		cfg:          cfg,
		deps:         deps,
		planner:      planner.New(cfg.Planner),
		orchestrator: NewOrchestrator(deps.Observations, deps.Hotspots, deps.Recorder),
		classifier:   targets.NewClassifier(cfg.Thresholds),
		log:          GetLogger(),
	}, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// ClampRadius applies the default to non-positive values and caps the rest.
func (s *Service) ClampRadius(km float64) float64 {
	if km <= 0 || math.IsNaN(km) {
		return s.cfg.DefaultRadiusKm
	}
	return math.Min(km, s.cfg.MaxRadiusKm)
}

// ClampLookback applies the default to non-positive values and caps the rest.
func (s *Service) ClampLookback(days int) int {
	if days <= 0 {
		return s.cfg.DefaultLookbackDays
	}
	return min(days, s.cfg.MaxLookbackDays)
}

// Search runs req to completion. progress may be nil. Point failures never
// fail the search; a search where every point failed returns an empty result
// and a nil error. Invalid input fails before any fetch. On cancellation the
// partial result is returned together with the error.
func (s *Service) Search(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = logger.WithTraceID(ctx, id)
	log := s.log.WithContext(ctx)

	result, err := s.search(ctx, id, &req, progress)

	elapsed := time.Since(start)
	s.deps.Recorder.RecordDuration(metrics.OpSearch, elapsed.Seconds())
	switch {
	case err == nil && result.Stats.FailedPoints > 0:
		s.deps.Recorder.RecordOperation(metrics.OpSearch, metrics.StatusPartial)
	case err == nil:
		s.deps.Recorder.RecordOperation(metrics.OpSearch, metrics.StatusSuccess)
	case errors.IsCategory(err, errors.CategoryCancellation):
		s.deps.Recorder.RecordOperation(metrics.OpSearch, metrics.StatusCancelled)
	default:
		s.deps.Recorder.RecordOperation(metrics.OpSearch, metrics.StatusError)
		s.deps.Recorder.RecordError(metrics.OpSearch, string(errorCategory(err, errors.CategoryGeneric)))
	}

	if result == nil {
		log.Warn("search rejected", logger.String("mode", string(req.Mode)), logger.Error(err))
		return nil, err
	}

	result.Stats.ElapsedMs = elapsed.Milliseconds()
	if sr, ok := s.deps.Recorder.(sizeRecorder); ok {
		sr.RecordSearchSize(string(req.Mode), result.Stats.SamplePoints, result.Stats.RawObservations, result.Stats.UniqueSightings)
	}
	log.Info("search finished",
		logger.String("mode", string(result.Mode)),
		logger.Int("points", result.Stats.SamplePoints),
		logger.Int("failed_points", result.Stats.FailedPoints),
		logger.Int("raw", result.Stats.RawObservations),
		logger.Int("unique", result.Stats.UniqueSightings),
		logger.Int("targets", result.Stats.Targets),
		logger.Duration("elapsed", elapsed))
	return result, err
}

func (s *Service) search(ctx context.Context, id string, req *Request, progress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	listMode := s.cfg.DefaultListMode
	if req.ListMode != "" {
		parsed, err := targets.ParseListMode(req.ListMode)
		if err != nil {
			return nil, err
		}
		listMode = parsed
	}

	result := &Result{
		ID:           id,
		Mode:         req.Mode,
		ListMode:     listMode,
		SpeciesCode:  req.SpeciesCode,
		RadiusKm:     s.ClampRadius(req.RadiusKm),
		LookbackDays: s.ClampLookback(req.LookbackDays),
	}

	var reference targets.SpeciesSet
	if req.SpeciesCode == "" && listMode != targets.ModeAll {
		set, err := s.referenceSet(ctx, listMode)
		if err != nil {
			return nil, err
		}
		reference = set
	}

	var (
		run      *RunResult
		strategy sightings.KeyStrategy
		runErr   error
	)
	if req.Mode == ModeRegion {
		strategy = sightings.LocationSpecies
		run, runErr = s.runRegion(ctx, req.Region, result.LookbackDays, progress)
		result.Stats.SamplePoints, result.Stats.RequestedPoints = 1, 1
		if run == nil {
			return nil, runErr
		}
	} else {
		shape, err := s.shape(ctx, req, result)
		if err != nil {
			return nil, err
		}
		plan, err := s.planner.Plan(shape)
		if err != nil {
			return nil, err
		}
		result.Stats.SamplePoints = len(plan.Points)
		result.Stats.RequestedPoints = plan.Requested
		result.Stats.Truncated = plan.Truncated

		snapshotStride, hotspotStride := s.cfg.Strides.forShape(shape.Kind)
		strategy = sightings.LocationSpecies
		if shape.Kind != planner.ShapePoint {
			strategy = sightings.Composite
		}
		run, runErr = s.orchestrator.Run(ctx, plan.Points, RunOptions{
			RadiusKm:       result.RadiusKm,
			LookbackDays:   result.LookbackDays,
			Strategy:       strategy,
			SnapshotStride: snapshotStride,
			HotspotStride:  hotspotStride,
		}, progress)
	}

	s.assemble(result, run, strategy, req, listMode, reference)
	return result, runErr
}

// shape builds the planner shape for req. Species searches around a point
// cover a box of radius in every direction.
func (s *Service) shape(ctx context.Context, req *Request, result *Result) (planner.Shape, error) {
	switch req.Mode {
	case ModePoint:
		if req.SpeciesCode != "" {
			return planner.BoxShape(geo.BoxAround(*req.Point, result.RadiusKm)), nil
		}
		return planner.PointShape(*req.Point), nil
	case ModeBox:
		return planner.BoxShape(*req.Box), nil
	case ModeRoute:
		route, err := s.route(ctx, req)
		if err != nil {
			return planner.Shape{}, err
		}
		result.Route = route
		return planner.PathShape(route.Path, route.DistanceKm), nil
	default:
		return planner.Shape{}, errors.Newf("unsupported search mode %q", req.Mode).
			Component("search").
			Category(errors.CategoryValidation).
			Build()
	}
}

func (s *Service) route(ctx context.Context, req *Request) (*routing.Route, error) {
	if s.deps.Router == nil {
		return nil, errors.Newf("route search requires a router").
			Component("search").
			Category(errors.CategoryConfiguration).
			Build()
	}

	start := time.Now()
	route, err := s.deps.Router.Route(ctx, *req.Origin, *req.Destination, req.Waypoints)
	s.deps.Recorder.RecordDuration(metrics.OpRouteFetch, time.Since(start).Seconds())
	if err != nil {
		s.deps.Recorder.RecordOperation(metrics.OpRouteFetch, metrics.StatusError)
		s.deps.Recorder.RecordError(metrics.OpRouteFetch, string(errorCategory(err, errors.CategoryRouting)))
		return nil, err
	}
	s.deps.Recorder.RecordOperation(metrics.OpRouteFetch, metrics.StatusSuccess)
	return route, nil
}

func (s *Service) referenceSet(ctx context.Context, mode targets.ListMode) (targets.SpeciesSet, error) {
	if s.deps.References == nil {
		return nil, errors.Newf("list mode %q requires a life list", mode).
			Component("search").
			Category(errors.CategoryConfiguration).
			Build()
	}

	set, err := s.deps.References.ReferenceSet(ctx, mode)
	if err != nil {
		s.deps.Recorder.RecordOperation(metrics.OpReferenceLists, metrics.StatusError)
		s.deps.Recorder.RecordError(metrics.OpReferenceLists, string(errorCategory(err, errors.CategoryReferences)))
		return nil, err
	}
	s.deps.Recorder.RecordOperation(metrics.OpReferenceLists, metrics.StatusSuccess)
	return set, nil
}

// runRegion performs the single region fetch. A failed fetch is isolated
// like a failed point. Hotspots come from around the first unique sighting.
func (s *Service) runRegion(ctx context.Context, region string, lookback int, progress ProgressFunc) (*RunResult, error) {
	if s.deps.Regions == nil {
		return nil, errors.Newf("region search requires a region fetcher").
			Component("search").
			Category(errors.CategoryConfiguration).
			Build()
	}
	log := s.log.WithContext(ctx)
	run := &RunResult{Completed: 1}

	start := time.Now()
	raw, err := s.deps.Regions.RegionObservations(ctx, region, lookback, s.cfg.RegionMaxResults)
	s.deps.Recorder.RecordDuration(metrics.OpPointFetch, time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.Completed = 0
			return run, errors.New(ctxErr).
				Component("search").
				Category(errors.CategoryCancellation).
				Context("region", region).
				Build()
		}
		run.FailedPoints = []int{0}
		s.deps.Recorder.RecordOperation(metrics.OpPointFetch, metrics.StatusError)
		s.deps.Recorder.RecordError(metrics.OpPointFetch, string(errorCategory(err, errors.CategoryFetch)))
		log.Warn("region fetch failed", logger.String("region", region), logger.Error(err))
	} else {
		s.deps.Recorder.RecordOperation(metrics.OpPointFetch, metrics.StatusSuccess)
		run.Raw = raw
	}

	unique := sightings.Deduplicate(run.Raw, sightings.LocationSpecies)
	if len(unique) > 0 && s.deps.Hotspots != nil {
		anchor := geo.Coordinate{Lat: unique[0].Lat, Lng: unique[0].Lng}
		hotspots, err := s.deps.Hotspots.Hotspots(ctx, anchor, RegionHotspotRadiusKm)
		if err != nil {
			run.HotspotFailures++
			s.deps.Recorder.RecordOperation(metrics.OpHotspotFetch, metrics.StatusError)
			log.Warn("region hotspot fetch failed", logger.String("region", region), logger.Error(err))
		} else {
			s.deps.Recorder.RecordOperation(metrics.OpHotspotFetch, metrics.StatusSuccess)
			run.Hotspots = ranking.UniqueHotspots(hotspots)
		}
	}

	if progress != nil {
		progress(Snapshot{
			Completed:    1,
			Total:        1,
			FailedPoints: len(run.FailedPoints),
			Final:        true,
			Raw:          run.Raw[:len(run.Raw):len(run.Raw)],
			Unique:       unique,
		})
	}
	return run, nil
}

// assemble derives every aggregate from the same raw log.
func (s *Service) assemble(result *Result, run *RunResult, strategy sightings.KeyStrategy, req *Request, listMode targets.ListMode, reference targets.SpeciesSet) {
	raw := run.Raw
	if raw == nil {
		raw = []observation.Observation{}
	}
	topN := req.TopN
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	unique := sightings.Deduplicate(raw, strategy)
	all := checklists.Aggregate(raw)

	var classified targets.Result
	if req.SpeciesCode != "" {
		unique = sightings.FilterSpecies(unique, req.SpeciesCode)
		classified = s.classifier.Annotate(unique, raw)
	} else {
		classified = s.classifier.ClassifyMode(listMode, unique, raw, reference)
	}

	result.Summary = summarize(all, run.Hotspots, classified.Targets, raw)

	shownChecklists, shownHotspots, shownTargets := all, run.Hotspots, classified.Targets
	if r := req.Refine; r != nil {
		shownChecklists = r.checklists(all)
		shownHotspots = r.hotspots(run.Hotspots)
		shownTargets = r.targets(classified.Targets)
		result.Insights = r.insights(all, run.Hotspots)
	}

	result.Raw = raw
	result.UniqueSightings = unique
	result.Checklists = ranking.Checklists(shownChecklists, topN)
	result.Hotspots = ranking.Hotspots(shownHotspots, topN)
	result.Targets = shownTargets
	result.Frequencies = classified.Frequencies

	result.Stats.FailedPoints = len(run.FailedPoints)
	result.Stats.HotspotFailures = run.HotspotFailures
	result.Stats.RawObservations = len(raw)
	result.Stats.UniqueSightings = len(unique)
	result.Stats.Species = sightings.SpeciesCount(unique)
	result.Stats.Checklists = len(all)
	result.Stats.Targets = len(shownTargets)
}
