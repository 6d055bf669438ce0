// Package geo holds the coordinate types and great-circle helpers shared by
// the sample planner, the route service and the aggregation stages.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

const (
	EarthRadiusKm = 6371.0 // Earth's mean radius in kilometers
	KmPerMile     = 1.609344

	// MilesPerDegree is the flat-earth approximation used to turn linear
	// spacing into degree steps for grid and radius math.
	MilesPerDegree = 69.0
	KmPerDegree    = MilesPerDegree * KmPerMile
)

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
}

// String renders the coordinate with five decimals, roughly one metre.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lng)
}

// IsFinite reports whether both components are finite numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// Validate checks that the coordinate is finite and within the WGS84 ranges.
func (c Coordinate) Validate() error {
	if !c.IsFinite() {
		return fmt.Errorf("coordinate %v,%v is not finite", c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Lng)
	}
	return nil
}

func (c Coordinate) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// DistanceKm returns the great-circle distance between a and b in kilometers.
func DistanceKm(a, b Coordinate) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusKm
}

// PathLengthKm sums the great-circle length of consecutive legs.
func PathLengthKm(path []Coordinate) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// Interpolate returns the point a fraction t of the way along the great
// circle from a to b.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	p := s2.Interpolate(t, s2.PointFromLatLng(a.latLng()), s2.PointFromLatLng(b.latLng()))
	ll := s2.LatLngFromPoint(p)
	return Coordinate{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// MilesToKm converts statute miles to kilometers.
func MilesToKm(miles float64) float64 {
	return miles * KmPerMile
}

// KmToMiles converts kilometers to statute miles.
func KmToMiles(km float64) float64 {
	return km / KmPerMile
}

// KmToDegrees converts a linear distance to a degree step using the
// flat-earth approximation.
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

// NormalizeLng wraps a longitude into [-180, 180).
func NormalizeLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// BoundingBox is an axis-aligned box in degrees. A box whose West edge is
// greater than its East edge crosses the antimeridian.
type BoundingBox struct {
	South float64 `json:"south" yaml:"south" validate:"gte=-90,lte=90"`
	West  float64 `json:"west" yaml:"west" validate:"gte=-180,lte=180"`
	North float64 `json:"north" yaml:"north" validate:"gte=-90,lte=90"`
	East  float64 `json:"east" yaml:"east" validate:"gte=-180,lte=180"`
}

// Validate checks that all edges are finite, in range, and South <= North.
func (b BoundingBox) Validate() error {
	if err := (Coordinate{Lat: b.South, Lng: b.West}).Validate(); err != nil {
		return fmt.Errorf("south-west corner: %w", err)
	}
	if err := (Coordinate{Lat: b.North, Lng: b.East}).Validate(); err != nil {
		return fmt.Errorf("north-east corner: %w", err)
	}
	if b.South > b.North {
		return fmt.Errorf("south edge %v is north of north edge %v", b.South, b.North)
	}
	return nil
}

// LngSpan returns the eastward longitudinal extent in degrees, accounting for
// antimeridian crossing.
func (b BoundingBox) LngSpan() float64 {
	span := b.East - b.West
	if span < 0 {
		span += 360
	}
	return span
}

// LatSpan returns the latitudinal extent in degrees.
func (b BoundingBox) LatSpan() float64 {
	return b.North - b.South
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: b.South + b.LatSpan()/2,
		Lng: NormalizeLng(b.West + b.LngSpan()/2),
	}
}

// BoxAround returns the box extending radiusKm in each cardinal direction
// from center, clamped to the poles.
func BoxAround(center Coordinate, radiusKm float64) BoundingBox {
	d := KmToDegrees(radiusKm)
	west, east := center.Lng-d, center.Lng+d
	if d >= 180 {
		west, east = -180, 180
	}
	return BoundingBox{
		South: math.Max(center.Lat-d, -90),
		North: math.Min(center.Lat+d, 90),
		West:  NormalizeLng(west),
		East:  NormalizeLng(east),
	}
}
