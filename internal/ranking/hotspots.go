package ranking

import (
	"math"
	"strings"

	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/observation"
)

// Nearest is a hotspot with its distance from a reference point.
type Nearest struct {
	Hotspot    observation.Hotspot `json:"hotspot" yaml:"hotspot"`
	DistanceKm float64             `json:"distanceKm" yaml:"distanceKm"`
	DistanceMi float64             `json:"distanceMi" yaml:"distanceMi"`
}

// NearestHotspot returns the hotspot closest to point. Ties keep the earlier
// hotspot. The second result is false when list is empty.
func NearestHotspot(list []observation.Hotspot, point geo.Coordinate) (Nearest, bool) {
	best := -1
	bestKm := math.Inf(1)
	for i := range list {
		km := geo.DistanceKm(point, geo.Coordinate{Lat: list[i].Lat, Lng: list[i].Lng})
		if km < bestKm {
			best, bestKm = i, km
		}
	}
	if best < 0 {
		return Nearest{}, false
	}
	return Nearest{Hotspot: list[best], DistanceKm: bestKm, DistanceMi: geo.KmToMiles(bestKm)}, true
}

// HotspotsWithMinSpecies keeps hotspots with at least minSpecies all-time species.
func HotspotsWithMinSpecies(list []observation.Hotspot, minSpecies int) []observation.Hotspot {
	kept := make([]observation.Hotspot, 0, len(list))
	for i := range list {
		if list[i].SpeciesAllTime >= minSpecies {
			kept = append(kept, list[i])
		}
	}
	return kept
}

// SearchHotspots keeps hotspots whose name or location id contains query,
// ignoring case. A blank query returns list unchanged.
func SearchHotspots(list []observation.Hotspot, query string) []observation.Hotspot {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	matched := make([]observation.Hotspot, 0)
	for i := range list {
		if strings.Contains(strings.ToLower(list[i].Name), query) ||
			strings.Contains(strings.ToLower(list[i].LocationID), query) {
			matched = append(matched, list[i])
		}
	}
	return matched
}

// HotspotSummary describes the all-time species counts of a hotspot set.
type HotspotSummary struct {
	Total          int     `json:"total" yaml:"total"`
	AverageSpecies float64 `json:"averageSpecies" yaml:"averageSpecies"`
	MaxSpecies     int     `json:"maxSpecies" yaml:"maxSpecies"`
	// MinSpecies ignores hotspots reporting zero species.
	MinSpecies int `json:"minSpecies" yaml:"minSpecies"`
}

// SummarizeHotspots computes a HotspotSummary. An empty list yields zeros.
func SummarizeHotspots(list []observation.Hotspot) HotspotSummary {
	summary := HotspotSummary{Total: len(list)}
	if len(list) == 0 {
		return summary
	}

	sum := 0
	for i := range list {
		n := list[i].SpeciesAllTime
		sum += n
		summary.MaxSpecies = max(summary.MaxSpecies, n)
		if n > 0 && (summary.MinSpecies == 0 || n < summary.MinSpecies) {
			summary.MinSpecies = n
		}
	}
	summary.AverageSpecies = float64(sum) / float64(len(list))
	return summary
}

// HotspotComparison contrasts the all-time species counts of two hotspots.
type HotspotComparison struct {
	First      observation.Hotspot `json:"first" yaml:"first"`
	Second     observation.Hotspot `json:"second" yaml:"second"`
	Difference int                 `json:"difference" yaml:"difference"`
	// Winner is the richer hotspot's name. The second wins ties.
	Winner string `json:"winner" yaml:"winner"`
}

// CompareHotspots looks up two location ids in list and compares them. The
// second result is false when either id is missing.
func CompareHotspots(list []observation.Hotspot, firstID, secondID string) (HotspotComparison, bool) {
	first, okFirst := findHotspot(list, firstID)
	second, okSecond := findHotspot(list, secondID)
	if !okFirst || !okSecond {
		return HotspotComparison{}, false
	}

	cmp := HotspotComparison{
		First:      first,
		Second:     second,
		Difference: abs(first.SpeciesAllTime - second.SpeciesAllTime),
		Winner:     second.Name,
	}
	if first.SpeciesAllTime > second.SpeciesAllTime {
		cmp.Winner = first.Name
	}
	return cmp, true
}

func findHotspot(list []observation.Hotspot, id string) (observation.Hotspot, bool) {
	for i := range list {
		if list[i].LocationID == id {
			return list[i], true
		}
	}
	return observation.Hotspot{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
