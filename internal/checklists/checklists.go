// Package checklists regroups the raw observation log into checklists.
//
// Aggregation always runs on the raw log rather than on deduplicated
// sightings: deduplication drops records that belong to other checklists
// and would undercount them.
package checklists

import (
	"slices"
	"strings"
	"time"

	"github.com/tphakala/birdscout/internal/observation"
)

// UnknownObserver is used when no record of a checklist names its observer.
const UnknownObserver = "Unknown"

// Checklist is one birding submission rebuilt from its observations.
type Checklist struct {
	ID           string   `json:"subId" yaml:"subId"`
	Observer     string   `json:"observer" yaml:"observer"`
	LocationID   string   `json:"locId" yaml:"locId"`
	LocationName string   `json:"locName" yaml:"locName"`
	Lat          float64  `json:"lat" yaml:"lat"`
	Lng          float64  `json:"lng" yaml:"lng"`
	ObservedAt   string   `json:"obsDt" yaml:"obsDt"`
	URL          string   `json:"url" yaml:"url"`
	Species      []string `json:"species" yaml:"species"` // distinct names, sorted
}

// SpeciesCount returns the number of distinct species on the checklist.
func (c *Checklist) SpeciesCount() int {
	return len(c.Species)
}

// Aggregate groups raw by checklist id. Records without an id are skipped.
// Location and time come from the first record of each checklist; the
// observer is the first non-empty name. Checklists are returned in order of
// first appearance.
func Aggregate(raw []observation.Observation) []Checklist {
	type builder struct {
		checklist Checklist
		species   map[string]struct{}
	}

	index := make(map[string]int)
	builders := make([]*builder, 0)

	for i := range raw {
		o := &raw[i]
		if o.ChecklistID == "" {
			continue
		}

		pos, ok := index[o.ChecklistID]
		if !ok {
			pos = len(builders)
			index[o.ChecklistID] = pos
			builders = append(builders, &builder{
				checklist: Checklist{
					ID:           o.ChecklistID,
					LocationID:   o.LocationID,
					LocationName: o.LocationName,
					Lat:          o.Lat,
					Lng:          o.Lng,
					ObservedAt:   o.ObservedAt,
					URL:          observation.ChecklistURL(o.ChecklistID),
				},
				species: make(map[string]struct{}),
			})
		}

		b := builders[pos]
		if b.checklist.Observer == "" && o.Observer != "" {
			b.checklist.Observer = o.Observer
		}
		if name := o.SpeciesName(); name != "" {
			b.species[name] = struct{}{}
		}
	}

	result := make([]Checklist, len(builders))
	for i, b := range builders {
		c := b.checklist
		if c.Observer == "" {
			c.Observer = UnknownObserver
		}
		c.Species = make([]string, 0, len(b.species))
		for name := range b.species {
			c.Species = append(c.Species, name)
		}
		slices.Sort(c.Species)
		result[i] = c
	}

	return result
}

// Stats summarises species counts across checklists.
type Stats struct {
	Total           int     `json:"total" yaml:"total"`
	DistinctSpecies int     `json:"distinctSpecies" yaml:"distinctSpecies"`
	AverageSpecies  float64 `json:"averageSpecies" yaml:"averageSpecies"`
	MaxSpecies      int     `json:"maxSpecies" yaml:"maxSpecies"`
	MinSpecies      int     `json:"minSpecies" yaml:"minSpecies"`
}

// Statistics computes Stats for list. An empty list yields all zeros.
func Statistics(list []Checklist) Stats {
	if len(list) == 0 {
		return Stats{}
	}

	distinct := make(map[string]struct{})
	stats := Stats{Total: len(list), MinSpecies: list[0].SpeciesCount()}
	sum := 0

	for i := range list {
		n := list[i].SpeciesCount()
		sum += n
		stats.MaxSpecies = max(stats.MaxSpecies, n)
		stats.MinSpecies = min(stats.MinSpecies, n)
		for _, name := range list[i].Species {
			distinct[name] = struct{}{}
		}
	}

	stats.DistinctSpecies = len(distinct)
	stats.AverageSpecies = float64(sum) / float64(len(list))
	return stats
}

// Comparison lists species shared by, or unique to, two checklists.
type Comparison struct {
	Shared       []string `json:"shared" yaml:"shared"`
	OnlyFirst    []string `json:"onlyFirst" yaml:"onlyFirst"`
	OnlySecond   []string `json:"onlySecond" yaml:"onlySecond"`
	TotalSpecies int      `json:"totalSpecies" yaml:"totalSpecies"`
}

// Compare diffs the species of a and b. Each list in the result is sorted.
func Compare(a, b *Checklist) Comparison {
	inB := make(map[string]struct{}, len(b.Species))
	for _, name := range b.Species {
		inB[name] = struct{}{}
	}

	cmp := Comparison{
		Shared:     []string{},
		OnlyFirst:  []string{},
		OnlySecond: []string{},
	}
	inA := make(map[string]struct{}, len(a.Species))
	for _, name := range a.Species {
		inA[name] = struct{}{}
		if _, ok := inB[name]; ok {
			cmp.Shared = append(cmp.Shared, name)
		} else {
			cmp.OnlyFirst = append(cmp.OnlyFirst, name)
		}
	}
	for _, name := range b.Species {
		if _, ok := inA[name]; !ok {
			cmp.OnlySecond = append(cmp.OnlySecond, name)
		}
	}

	slices.Sort(cmp.Shared)
	slices.Sort(cmp.OnlyFirst)
	slices.Sort(cmp.OnlySecond)
	cmp.TotalSpecies = len(cmp.Shared) + len(cmp.OnlyFirst) + len(cmp.OnlySecond)
	return cmp
}

// ByObserver keeps checklists whose observer contains query, ignoring case.
func ByObserver(list []Checklist, query string) []Checklist {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	matched := make([]Checklist, 0)
	for i := range list {
		if strings.Contains(strings.ToLower(list[i].Observer), query) {
			matched = append(matched, list[i])
		}
	}
	return matched
}

// InDateRange keeps checklists whose timestamp falls within [start, end].
// Checklists with unparseable timestamps are dropped.
func InDateRange(list []Checklist, start, end time.Time) []Checklist {
	matched := make([]Checklist, 0)
	for i := range list {
		at, ok := observation.ParseTime(list[i].ObservedAt)
		if !ok {
			continue
		}
		if !at.Before(start) && !at.After(end) {
			matched = append(matched, list[i])
		}
	}
	return matched
}
