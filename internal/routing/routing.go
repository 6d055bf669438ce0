// Package routing turns an origin, destination and optional waypoints into a
// path polyline with its total length, for route-mode searches.
package routing

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
)

const (
	ProviderOSRM     = "osrm"
	ProviderStraight = "straight"

	// DefaultStepKm is the vertex spacing of straight-line routes.
	DefaultStepKm = 5.0
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the routing package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("routing")
	})
	return serviceLogger
}

// Route is a travel path between stops.
type Route struct {
	Path       []geo.Coordinate `json:"path"`
	DistanceKm float64          `json:"distanceKm"`
	Provider   string           `json:"provider"`
}

// Router fetches routes.
type Router interface {
	Route(ctx context.Context, origin, destination geo.Coordinate, waypoints []geo.Coordinate) (*Route, error)
}

// stops validates and joins origin, waypoints and destination in travel order.
func stops(origin, destination geo.Coordinate, waypoints []geo.Coordinate) ([]geo.Coordinate, error) {
	all := make([]geo.Coordinate, 0, len(waypoints)+2)
	all = append(all, origin)
	all = append(all, waypoints...)
	all = append(all, destination)

	for i, c := range all {
		if err := c.Validate(); err != nil {
			return nil, errors.New(err).
				Component("routing").
				Category(errors.CategoryValidation).
				Context("stop", i).
				Build()
		}
	}
	return all, nil
}

// StraightLine joins stops with great-circle legs. It needs no network and
// serves as the fallback when no routing service is configured.
type StraightLine struct {
	stepKm float64
}

// NewStraightLine returns a router that places a vertex every stepKm along
// each leg. Non-positive steps use DefaultStepKm.
func NewStraightLine(stepKm float64) *StraightLine {
	if stepKm <= 0 || math.IsNaN(stepKm) || math.IsInf(stepKm, 0) {
		stepKm = DefaultStepKm
	}
	return &StraightLine{stepKm: stepKm}
}

// Route implements Router.
func (s *StraightLine) Route(ctx context.Context, origin, destination geo.Coordinate, waypoints []geo.Coordinate) (*Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := stops(origin, destination, waypoints)
	if err != nil {
		return nil, err
	}

	path := []geo.Coordinate{all[0]}
	total := 0.0
	for i := 1; i < len(all); i++ {
		a, b := all[i-1], all[i]
		leg := geo.DistanceKm(a, b)
		total += leg

		n := int(math.Ceil(leg / s.stepKm))
		if n < 1 {
			n = 1
		}
		for k := 1; k < n; k++ {
			path = append(path, geo.Interpolate(a, b, float64(k)/float64(n)))
		}
		path = append(path, b)
	}

	GetLogger().Debug("straight-line route built",
		logger.Int("stops", len(all)),
		logger.Int("vertices", len(path)),
		logger.Float64("distance_km", total))

	return &Route{Path: path, DistanceKm: total, Provider: ProviderStraight}, nil
}

// Config selects and configures a router.
type Config struct {
	Provider string
	OSRM     OSRMConfig
	StepKm   float64
}

// New builds the router named by cfg.Provider. An empty provider selects the
// straight-line router.
func New(cfg Config) (Router, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOSRM:
		r, err := NewOSRM(cfg.OSRM)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "", ProviderStraight:
		return NewStraightLine(cfg.StepKm), nil
	default:
		return nil, errors.Newf("unknown routing provider %q", cfg.Provider).
			Component("routing").
			Category(errors.CategoryConfiguration).
			Build()
	}
}
