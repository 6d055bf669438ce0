package ranking

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tphakala/birdscout/internal/observation"
)

// Observers ranks leaderboard rows by species count and renumbers them from 1.
// The sort is stable so ties keep the order eBird returned them in.
func Observers(list []observation.TopObserver, n int) []observation.TopObserver {
	ranked := TopN(list, n, func(o *observation.TopObserver) int { return o.Species })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// ObserverSummary describes the species counts on a leaderboard.
type ObserverSummary struct {
	Total          int     `json:"total" yaml:"total"`
	AverageSpecies float64 `json:"averageSpecies" yaml:"averageSpecies"`
	MedianSpecies  float64 `json:"medianSpecies" yaml:"medianSpecies"`
	MaxSpecies     int     `json:"maxSpecies" yaml:"maxSpecies"`
	MinSpecies     int     `json:"minSpecies" yaml:"minSpecies"`
}

// SummarizeObservers computes an ObserverSummary. An empty list yields zeros.
func SummarizeObservers(list []observation.TopObserver) ObserverSummary {
	if len(list) == 0 {
		return ObserverSummary{}
	}

	counts := make([]int, len(list))
	sum := 0
	for i := range list {
		counts[i] = list[i].Species
		sum += counts[i]
	}
	slices.Sort(counts)

	mid := len(counts) / 2
	median := float64(counts[mid])
	if len(counts)%2 == 0 {
		median = float64(counts[mid-1]+counts[mid]) / 2
	}

	return ObserverSummary{
		Total:          len(list),
		AverageSpecies: float64(sum) / float64(len(list)),
		MedianSpecies:  median,
		MaxSpecies:     counts[len(counts)-1],
		MinSpecies:     counts[0],
	}
}

// SearchObservers keeps rows whose display name contains query, ignoring case.
// A blank query returns list unchanged.
func SearchObservers(list []observation.TopObserver, query string) []observation.TopObserver {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	matched := make([]observation.TopObserver, 0)
	for i := range list {
		if strings.Contains(strings.ToLower(list[i].DisplayName), query) {
			matched = append(matched, list[i])
		}
	}
	return matched
}

// Standing is an observer's position on a leaderboard.
type Standing struct {
	Rank     int                     `json:"rank" yaml:"rank"`
	Observer observation.TopObserver `json:"observer" yaml:"observer"`
	TopTen   bool                    `json:"topTen" yaml:"topTen"`
}

// ObserverStanding finds name on a ranked leaderboard, ignoring case. The
// second result is false when the name is blank or absent.
func ObserverStanding(ranked []observation.TopObserver, name string) (Standing, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Standing{}, false
	}
	i := slices.IndexFunc(ranked, func(o observation.TopObserver) bool {
		return strings.EqualFold(o.DisplayName, name)
	})
	if i < 0 {
		return Standing{}, false
	}
	return Standing{Rank: i + 1, Observer: ranked[i], TopTen: i < DefaultTopN}, true
}

// Progress compares a personal species count with a leader's.
type Progress struct {
	PersonalCount int `json:"personalCount" yaml:"personalCount"`
	LeaderCount   int `json:"leaderCount" yaml:"leaderCount"`
	// Difference is positive while the leader is ahead.
	Difference int `json:"difference" yaml:"difference"`
	// PercentOfLeader is rounded to one decimal. It is zero when the leader
	// has no species.
	PercentOfLeader float64 `json:"percentOfLeader" yaml:"percentOfLeader"`
	Message         string  `json:"message" yaml:"message"`
}

// CompareWithLeader measures personal against leader.
func CompareWithLeader(personal, leader int) Progress {
	p := Progress{
		PersonalCount: personal,
		LeaderCount:   leader,
		Difference:    leader - personal,
	}
	if leader > 0 {
		p.PercentOfLeader = math.Round(float64(personal)/float64(leader)*1000) / 10
	}

	switch {
	case p.Difference > 0:
		p.Message = fmt.Sprintf("You have %d fewer species than the top birder", p.Difference)
	case p.Difference < 0:
		p.Message = fmt.Sprintf("You have %d more species than the top birder!", -p.Difference)
	default:
		p.Message = "You're tied with the top birder!"
	}
	return p
}
