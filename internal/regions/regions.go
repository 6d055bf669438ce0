// Package regions answers the per-region questions that are not sample-point
// searches: which notable birds were reported, and who leads the region's
// species leaderboard.
package regions

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/ranking"
	"github.com/tphakala/birdscout/internal/sightings"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the regions package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("regions")
	})
	return serviceLogger
}

// Source is the subset of the eBird client the service needs.
type Source interface {
	NotableObservations(ctx context.Context, region string, backDays int) ([]observation.Observation, error)
	TopObservers(ctx context.Context, region string, year int) ([]observation.TopObserver, error)
}

// Service runs region lookups.
type Service struct {
	source   Source
	recorder metrics.Recorder
	now      func() time.Time
	log      logger.Logger
}

// NewService returns a service reading from source. recorder may be nil.
func NewService(source Source, recorder metrics.Recorder) (*Service, error) {
	if source == nil {
		return nil, errors.Newf("region service requires an eBird source").
			Component("regions").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return &Service{source: source, recorder: recorder, now: time.Now, log: GetLogger()}, nil
}

// Notable is the deduplicated list of notable sightings in a region.
type Notable struct {
	Region    string                    `json:"region" yaml:"region"`
	BackDays  int                       `json:"backDays" yaml:"backDays"`
	Species   int                       `json:"species" yaml:"species"`
	Sightings []observation.Observation `json:"sightings" yaml:"sightings"`
}

// Notable fetches the region's notable sightings, keeps one per species and
// location, and orders them most recent first.
func (s *Service) Notable(ctx context.Context, region string, backDays int) (*Notable, error) {
	region = normalizeRegion(region)
	raw, err := s.observe(ctx, metrics.OpNotable, func() ([]observation.Observation, error) {
		return s.source.NotableObservations(ctx, region, backDays)
	})
	if err != nil {
		return nil, err
	}

	unique := sightings.Deduplicate(raw, sightings.LocationSpecies)
	slices.SortStableFunc(unique, func(a, b observation.Observation) int {
		return strings.Compare(b.ObservedAt, a.ObservedAt)
	})

	s.log.WithContext(ctx).Debug("notable sightings fetched",
		logger.String("region", region),
		logger.Int("raw", len(raw)),
		logger.Int("unique", len(unique)))
	return &Notable{
		Region:    region,
		BackDays:  backDays,
		Species:   sightings.SpeciesCount(unique),
		Sightings: unique,
	}, nil
}

// LeaderboardRequest selects a region's top observers.
type LeaderboardRequest struct {
	Region string `json:"region" yaml:"region"`
	// Year defaults to the current year.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
	// Limit defaults to ranking.DefaultTopN.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
	// Query keeps observers whose name contains it.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	// Name is looked up on the full leaderboard.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// PersonalCount, when set, is compared with the leader's count.
	PersonalCount *int `json:"personalCount,omitempty" yaml:"personalCount,omitempty"`
}

// Leaderboard is a ranked slice of a region's top observers.
type Leaderboard struct {
	Region    string                    `json:"region" yaml:"region"`
	Year      int                       `json:"year" yaml:"year"`
	Observers []observation.TopObserver `json:"observers" yaml:"observers"`
	Summary   ranking.ObserverSummary   `json:"summary" yaml:"summary"`
	Standing  *ranking.Standing         `json:"standing,omitempty" yaml:"standing,omitempty"`
	Progress  *ranking.Progress         `json:"progress,omitempty" yaml:"progress,omitempty"`
}

// Leaderboard fetches and ranks a region's top observers. Summary, Standing
// and Progress use the whole leaderboard; Query and Limit only narrow
// Observers.
func (s *Service) Leaderboard(ctx context.Context, req LeaderboardRequest) (*Leaderboard, error) {
	region := normalizeRegion(req.Region)
	year := req.Year
	if year == 0 {
		year = s.now().Year()
	}

	start := time.Now()
	rows, err := s.source.TopObservers(ctx, region, year)
	s.recorder.RecordDuration(metrics.OpLeaderboard, time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(metrics.OpLeaderboard, err)
		return nil, err
	}
	s.recorder.RecordOperation(metrics.OpLeaderboard, metrics.StatusSuccess)

	ranked := ranking.Observers(rows, len(rows))
	shown := ranking.SearchObservers(ranked, req.Query)
	limit := req.Limit
	if limit <= 0 {
		limit = ranking.DefaultTopN
	}
	if len(shown) > limit {
		shown = shown[:limit]
	}

	board := &Leaderboard{
		Region:    region,
		Year:      year,
		Observers: shown,
		Summary:   ranking.SummarizeObservers(ranked),
	}
	if standing, ok := ranking.ObserverStanding(ranked, req.Name); ok {
		board.Standing = &standing
	}
	if req.PersonalCount != nil {
		leader := 0
		if len(ranked) > 0 {
			leader = ranked[0].Species
		}
		progress := ranking.CompareWithLeader(*req.PersonalCount, leader)
		board.Progress = &progress
	}
	return board, nil
}

func (s *Service) observe(ctx context.Context, op string, fetch func() ([]observation.Observation, error)) ([]observation.Observation, error) {
	start := time.Now()
	obs, err := fetch()
	s.recorder.RecordDuration(op, time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(op, err)
		s.log.WithContext(ctx).Warn("region lookup failed", logger.String("operation", op), logger.Error(err))
		return nil, err
	}
	s.recorder.RecordOperation(op, metrics.StatusSuccess)
	return obs, nil
}

func (s *Service) recordFailure(op string, err error) {
	category := errors.CategoryFetch
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) && enhanced.Category != "" {
		category = enhanced.Category
	}
	s.recorder.RecordOperation(op, metrics.StatusError)
	s.recorder.RecordError(op, string(category))
}

func normalizeRegion(region string) string {
	return strings.ToUpper(strings.TrimSpace(region))
}
