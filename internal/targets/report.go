package targets

import (
	"slices"
	"strings"
	"time"

	"github.com/tphakala/birdscout/internal/observation"
)

// ReportEntry summarises one target species across the search area.
type ReportEntry struct {
	SpeciesCode    string  `json:"speciesCode" yaml:"speciesCode"`
	CommonName     string  `json:"comName" yaml:"comName"`
	ScientificName string  `json:"sciName" yaml:"sciName"`
	Tier           Tier    `json:"tier" yaml:"tier"`
	Frequency      float64 `json:"frequency" yaml:"frequency"`
	RarityCode     int     `json:"abaCode,omitempty" yaml:"abaCode,omitempty"`
	// Sightings counts the species' records in the raw log.
	Sightings    int     `json:"sightings" yaml:"sightings"`
	LastSeenAt   string  `json:"lastSeen" yaml:"lastSeen"`
	LastLocation string  `json:"lastLocation" yaml:"lastLocation"`
	Lat          float64 `json:"lat" yaml:"lat"`
	Lng          float64 `json:"lng" yaml:"lng"`
}

// Report groups targets by species, keeping the most recent sighting of each,
// and orders the species most recently seen first. Species whose timestamps
// cannot be parsed sort last, then by name.
func Report(targets []Target, raw []observation.Observation) []ReportEntry {
	counts := make(map[string]int)
	for i := range raw {
		counts[raw[i].SpeciesName()]++
	}

	type latest struct {
		entry ReportEntry
		at    time.Time
		ok    bool
	}

	index := make(map[string]int)
	groups := make([]latest, 0)

	for i := range targets {
		t := &targets[i]
		name := t.SpeciesName()
		at, ok := t.Time()

		pos, seen := index[name]
		if seen && !(ok && (!groups[pos].ok || at.After(groups[pos].at))) {
			continue
		}

		entry := ReportEntry{
			SpeciesCode:    t.SpeciesCode,
			CommonName:     t.CommonName,
			ScientificName: t.ScientificName,
			Tier:           t.Tier,
			Frequency:      t.Frequency,
			RarityCode:     t.RarityCode,
			Sightings:      counts[name],
			LastSeenAt:     t.ObservedAt,
			LastLocation:   t.LocationName,
			Lat:            t.Lat,
			Lng:            t.Lng,
		}
		if seen {
			groups[pos] = latest{entry: entry, at: at, ok: ok}
			continue
		}
		index[name] = len(groups)
		groups = append(groups, latest{entry: entry, at: at, ok: ok})
	}

	slices.SortStableFunc(groups, func(a, b latest) int {
		switch {
		case a.ok && b.ok && !a.at.Equal(b.at):
			return b.at.Compare(a.at)
		case a.ok != b.ok:
			if a.ok {
				return -1
			}
			return 1
		default:
			return strings.Compare(strings.ToLower(a.entry.CommonName), strings.ToLower(b.entry.CommonName))
		}
	})

	report := make([]ReportEntry, len(groups))
	for i := range groups {
		report[i] = groups[i].entry
	}
	return report
}

// Stats counts targets and distinct target species per tier.
type Stats struct {
	Total   int          `json:"total" yaml:"total"`
	Species int          `json:"species" yaml:"species"`
	ByTier  map[Tier]int `json:"byTier" yaml:"byTier"`
}

// Statistics computes Stats for targets. ByTier counts distinct species.
func Statistics(targets []Target) Stats {
	stats := Stats{
		Total: len(targets),
		ByTier: map[Tier]int{
			TierExpected: 0,
			TierUncommon: 0,
			TierNotable:  0,
			TierRare:     0,
		},
	}

	for _, card := range Cards(targets) {
		stats.Species++
		stats.ByTier[card.Tier]++
	}
	return stats
}
