// Package ranking orders checklists, hotspots and leaderboard rows by species
// count and summarises them.
package ranking

import (
	"cmp"
	"slices"

	"github.com/tphakala/birdscout/internal/checklists"
	"github.com/tphakala/birdscout/internal/observation"
)

// DefaultTopN is used when a caller passes a non-positive limit.
const DefaultTopN = 10

// TopN returns up to n items ordered by score, highest first. The sort is
// stable so equal scores keep their input order. items is not modified.
func TopN[T any](items []T, n int, score func(*T) int) []T {
	if n <= 0 {
		n = DefaultTopN
	}

	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		return cmp.Compare(score(&b), score(&a))
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []T{}
	}
	return ranked
}

// Checklists ranks checklists by distinct species count.
func Checklists(list []checklists.Checklist, n int) []checklists.Checklist {
	return TopN(list, n, func(c *checklists.Checklist) int { return c.SpeciesCount() })
}

// Hotspots ranks hotspots by all-time species count.
func Hotspots(list []observation.Hotspot, n int) []observation.Hotspot {
	return TopN(list, n, func(h *observation.Hotspot) int { return h.SpeciesAllTime })
}

// UniqueHotspots drops hotspots whose location id was already seen. The
// first occurrence wins and order is preserved.
func UniqueHotspots(list []observation.Hotspot) []observation.Hotspot {
	seen := make(map[string]struct{}, len(list))
	unique := make([]observation.Hotspot, 0, len(list))
	for i := range list {
		if _, ok := seen[list[i].LocationID]; ok {
			continue
		}
		seen[list[i].LocationID] = struct{}{}
		unique = append(unique, list[i])
	}
	return unique
}
