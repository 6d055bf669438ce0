// Package planner turns a search shape into the ordered sample points that
// the fetch orchestrator queries one after another.
package planner

import (
	"math"
	"sync"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
)

const (
	// DefaultSpacingMiles is the distance between neighbouring sample points.
	DefaultSpacingMiles = 20.0

	// DefaultMaxPoints bounds the number of fetches a single search may issue.
	DefaultMaxPoints = 400

	// MinSpacingKm is the smallest accepted point spacing.
	MinSpacingKm = 1.0

	// gridEpsilon absorbs float error when an extent is an exact multiple of the step.
	gridEpsilon = 1e-9
)

// DefaultSpacingKm is DefaultSpacingMiles in kilometers.
var DefaultSpacingKm = geo.MilesToKm(DefaultSpacingMiles)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("planner")
	})
	return serviceLogger
}

// ShapeKind identifies the geometry of a search.
type ShapeKind string

const (
	ShapePoint ShapeKind = "point"
	ShapeBox   ShapeKind = "box"
	ShapePath  ShapeKind = "path"
)

// Shape is the area a search covers. Only the field matching Kind is read.
type Shape struct {
	Kind  ShapeKind
	Point geo.Coordinate
	Box   geo.BoundingBox
	Path  []geo.Coordinate
	// PathDistanceKm is the routed length of Path. When zero the great-circle
	// length of the polyline is used.
	PathDistanceKm float64
}

// PointShape returns a single-location shape.
func PointShape(c geo.Coordinate) Shape {
	return Shape{Kind: ShapePoint, Point: c}
}

// BoxShape returns a bounding-box shape.
func BoxShape(b geo.BoundingBox) Shape {
	return Shape{Kind: ShapeBox, Box: b}
}

// PathShape returns a route polyline shape with its total distance.
func PathShape(path []geo.Coordinate, distanceKm float64) Shape {
	return Shape{Kind: ShapePath, Path: path, PathDistanceKm: distanceKm}
}

// Options configures point spacing and the fetch cap.
type Options struct {
	SpacingKm float64
	// MaxPoints caps the plan length. Zero or negative disables the cap.
	MaxPoints int
}

// DefaultOptions returns 20 mile spacing with the default cap.
func DefaultOptions() Options {
	return Options{SpacingKm: DefaultSpacingKm, MaxPoints: DefaultMaxPoints}
}

// Plan is an ordered list of sample points.
type Plan struct {
	Points []geo.Coordinate
	// Requested is the number of points the shape produced before the cap.
	Requested int
	// Truncated is set when Requested exceeded the cap.
	Truncated bool
}

// Planner produces sample plans.
type Planner struct {
	opts Options
	log  logger.Logger
}

// New creates a planner. Non-positive spacing falls back to the default and
// spacing below MinSpacingKm is raised to it.
func New(opts Options) *Planner {
	if opts.SpacingKm <= 0 || math.IsNaN(opts.SpacingKm) || math.IsInf(opts.SpacingKm, 0) {
		opts.SpacingKm = DefaultSpacingKm
	}
	opts.SpacingKm = max(opts.SpacingKm, MinSpacingKm)
	return &Planner{opts: opts, log: GetLogger()}
}

// Options returns the effective options.
func (p *Planner) Options() Options {
	return p.opts
}

// Plan returns the sample points for shape. Invalid input returns a
// validation error and no points; valid input always yields at least one point.
func (p *Planner) Plan(shape Shape) (*Plan, error) {
	var points []geo.Coordinate
	requested := 0

	switch shape.Kind {
	case ShapePoint:
		if err := shape.Point.Validate(); err != nil {
			return nil, inputError(err, "plan_point")
		}
		points = []geo.Coordinate{shape.Point}

	case ShapeBox:
		if err := shape.Box.Validate(); err != nil {
			return nil, inputError(err, "plan_grid")
		}
		rows, cols := GridSize(shape.Box, p.opts.SpacingKm)
		requested = rows * cols
		points = gridPoints(shape.Box, p.opts.SpacingKm, rows, cols, p.opts.MaxPoints)

	case ShapePath:
		if len(shape.Path) == 0 {
			return nil, inputError(errors.NewStd("path has no vertices"), "plan_path")
		}
		for i, c := range shape.Path {
			if err := c.Validate(); err != nil {
				return nil, errors.New(err).
					Component("planner").
					Category(errors.CategoryValidation).
					Context("operation", "plan_path").
					Context("vertex", i).
					Build()
			}
		}
		distance := shape.PathDistanceKm
		if distance <= 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
			distance = geo.PathLengthKm(shape.Path)
		}
		points = SamplePath(shape.Path, distance, p.opts.SpacingKm)

	default:
		return nil, errors.Newf("unknown shape kind %q", shape.Kind).
			Component("planner").
			Category(errors.CategoryValidation).
			Context("operation", "plan").
			Build()
	}

	plan := &Plan{Points: points, Requested: max(requested, len(points))}
	p.applyCap(plan, shape.Kind)
	return plan, nil
}

// applyCap enforces MaxPoints. Grids keep the first points in row-major order.
// Paths keep their first points and always end at the destination.
func (p *Planner) applyCap(plan *Plan, kind ShapeKind) {
	limit := p.opts.MaxPoints
	if limit <= 0 || plan.Requested <= limit {
		return
	}

	switch {
	case len(plan.Points) <= limit:
		// grids are generated already capped
	case kind == ShapePath && limit >= 2:
		last := plan.Points[len(plan.Points)-1]
		plan.Points = append(plan.Points[:limit-1:limit-1], last)
	default:
		plan.Points = plan.Points[:limit]
	}
	plan.Truncated = true

	p.log.Warn("sample plan truncated",
		logger.String("shape", string(kind)),
		logger.Int("requested", plan.Requested),
		logger.Int("max_points", limit))
}

func inputError(err error, operation string) error {
	return errors.New(err).
		Component("planner").
		Category(errors.CategoryValidation).
		Context("operation", operation).
		Build()
}

// GridPoints covers box with a lattice spaced spacingKm apart. Points run
// row-major from the south-west corner: south to north, and west to east
// within a row. Both edges are inclusive so a zero-area box yields one point.
func GridPoints(box geo.BoundingBox, spacingKm float64) []geo.Coordinate {
	rows, cols := GridSize(box, spacingKm)
	return gridPoints(box, spacingKm, rows, cols, 0)
}

// GridSize returns the lattice dimensions GridPoints would produce.
func GridSize(box geo.BoundingBox, spacingKm float64) (rows, cols int) {
	step := geo.KmToDegrees(spacingKm)
	rows = int(math.Floor(box.LatSpan()/step+gridEpsilon)) + 1
	cols = int(math.Floor(box.LngSpan()/step+gridEpsilon)) + 1
	return rows, cols
}

// gridPoints generates the row-major prefix of the lattice, stopping after
// limit points when limit is positive.
func gridPoints(box geo.BoundingBox, spacingKm float64, rows, cols, limit int) []geo.Coordinate {
	step := geo.KmToDegrees(spacingKm)
	n := rows * cols
	if limit > 0 {
		n = min(n, limit)
	}

	points := make([]geo.Coordinate, 0, n)
	for i := 0; i < rows && len(points) < n; i++ {
		lat := box.South + float64(i)*step
		for j := 0; j < cols && len(points) < n; j++ {
			points = append(points, geo.Coordinate{
				Lat: lat,
				Lng: geo.NormalizeLng(box.West + float64(j)*step),
			})
		}
	}
	return points
}

// SamplePath picks vertices from path so that consecutive samples sit about
// spacingKm apart along a route of totalKm. The first and last vertices are
// always included.
func SamplePath(path []geo.Coordinate, totalKm, spacingKm float64) []geo.Coordinate {
	if len(path) == 0 {
		return nil
	}

	target := max(2, int(math.Ceil(totalKm/spacingKm))+1)
	stride := max(1, len(path)/(target-1))

	points := make([]geo.Coordinate, 0, min(target, len(path))+1)
	for i := 0; i < len(path); i += stride {
		points = append(points, path[i])
	}

	last := path[len(path)-1]
	if points[len(points)-1] != last {
		points = append(points, last)
	}
	return points
}
