// Package sightings collapses a raw observation log into unique sightings.
package sightings

import (
	"strings"

	"github.com/tphakala/birdscout/internal/observation"
)

// KeyStrategy selects which fields identify a unique sighting.
type KeyStrategy int

const (
	// LocationSpecies keys on (lat, lng, species). Used for single-location
	// and region searches where a species is reported once per spot.
	LocationSpecies KeyStrategy = iota
	// Composite keys on (species, lat, lng, timestamp). Used for wide-area
	// searches where overlapping sample radii return the same report twice.
	Composite
)

// String returns the strategy name used in logs.
func (k KeyStrategy) String() string {
	switch k {
	case LocationSpecies:
		return "location-species"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// identity is a comparable sighting key. The timestamp stays empty for
// LocationSpecies. Coordinates are compared exactly.
type identity struct {
	species string
	lat     float64
	lng     float64
	at      string
}

func keyOf(o *observation.Observation, strategy KeyStrategy) identity {
	k := identity{species: o.SpeciesCode, lat: o.Lat, lng: o.Lng}
	if strategy == Composite {
		k.at = o.ObservedAt
	}
	return k
}

// Deduplicate returns one observation per identity key. When two records
// share a key the one with the later parsed timestamp wins; if either
// timestamp cannot be parsed the first-seen record is kept. The result lists
// winners in first-seen key order and raw is never modified.
func Deduplicate(raw []observation.Observation, strategy KeyStrategy) []observation.Observation {
	if len(raw) == 0 {
		return []observation.Observation{}
	}

	index := make(map[identity]int, len(raw))
	unique := make([]observation.Observation, 0, len(raw))

	for i := range raw {
		k := keyOf(&raw[i], strategy)
		pos, seen := index[k]
		if !seen {
			index[k] = len(unique)
			unique = append(unique, raw[i])
			continue
		}
		if isNewer(&raw[i], &unique[pos]) {
			unique[pos] = raw[i]
		}
	}

	return unique
}

// isNewer reports whether candidate strictly postdates current. Unparseable
// timestamps never displace an existing record.
func isNewer(candidate, current *observation.Observation) bool {
	candidateAt, ok := candidate.Time()
	if !ok {
		return false
	}
	currentAt, ok := current.Time()
	if !ok {
		return false
	}
	return candidateAt.After(currentAt)
}

// FilterSpecies keeps observations whose species code matches code,
// ignoring case. An empty code returns list unchanged.
func FilterSpecies(list []observation.Observation, code string) []observation.Observation {
	if code == "" {
		return list
	}

	filtered := make([]observation.Observation, 0, len(list))
	for i := range list {
		if strings.EqualFold(list[i].SpeciesCode, code) {
			filtered = append(filtered, list[i])
		}
	}
	return filtered
}

// SpeciesCount returns the number of distinct species codes in list.
func SpeciesCount(list []observation.Observation) int {
	seen := make(map[string]struct{}, len(list))
	for i := range list {
		seen[list[i].SpeciesCode] = struct{}{}
	}
	return len(seen)
}
