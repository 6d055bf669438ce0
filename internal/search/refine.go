package search

import (
	"time"

	"github.com/tphakala/birdscout/internal/checklists"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/ranking"
	"github.com/tphakala/birdscout/internal/targets"
)

// dateLayout is the format of Refinement.Since and Refinement.Until.
const dateLayout = "2006-01-02"

// Refinement narrows the lists of a search and asks for comparisons. Filters
// apply to the reported lists before ranking. Summary still describes the
// whole search.
type Refinement struct {
	// MinRarity keeps targets with a rarity code of at least this value.
	MinRarity int `json:"minRarity,omitempty" yaml:"minRarity,omitempty" validate:"gte=0,lte=6"`
	// Query keeps targets whose common, scientific or location name matches.
	Query string `json:"query,omitempty" yaml:"query,omitempty" validate:"max=64"`
	// Observer keeps checklists whose observer name matches.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty" validate:"max=64"`
	// Since and Until bound checklist dates, both inclusive.
	Since             string          `json:"since,omitempty" yaml:"since,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Until             string          `json:"until,omitempty" yaml:"until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MinHotspotSpecies int             `json:"minHotspotSpecies,omitempty" yaml:"minHotspotSpecies,omitempty" validate:"gte=0"`
	HotspotQuery      string          `json:"hotspotQuery,omitempty" yaml:"hotspotQuery,omitempty" validate:"max=64"`
	CompareChecklists []string        `json:"compareChecklists,omitempty" yaml:"compareChecklists,omitempty" validate:"omitempty,len=2,dive,required,max=32"`
	CompareHotspots   []string        `json:"compareHotspots,omitempty" yaml:"compareHotspots,omitempty" validate:"omitempty,len=2,dive,required,max=32"`
	Near              *geo.Coordinate `json:"near,omitempty" yaml:"near,omitempty"`
}

// Summary describes the whole search regardless of refinement.
type Summary struct {
	Checklists checklists.Stats       `json:"checklists" yaml:"checklists"`
	Hotspots   ranking.HotspotSummary `json:"hotspots" yaml:"hotspots"`
	Targets    targets.Stats          `json:"targets" yaml:"targets"`
	// Report has one entry per target species, most recently seen first.
	Report []targets.ReportEntry `json:"report" yaml:"report"`
}

// Insights hold the comparisons a Refinement asked for. A comparison whose
// ids are not in the search stays nil.
type Insights struct {
	Checklists     *checklists.Comparison     `json:"checklists,omitempty" yaml:"checklists,omitempty"`
	Hotspots       *ranking.HotspotComparison `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
	NearestHotspot *ranking.Nearest           `json:"nearestHotspot,omitempty" yaml:"nearestHotspot,omitempty"`
}

func summarize(all []checklists.Checklist, hotspots []observation.Hotspot, classified []targets.Target, raw []observation.Observation) Summary {
	return Summary{
		Checklists: checklists.Statistics(all),
		Hotspots:   ranking.SummarizeHotspots(hotspots),
		Targets:    targets.Statistics(classified),
		Report:     targets.Report(classified, raw),
	}
}

func (r *Refinement) targets(list []targets.Target) []targets.Target {
	if r.MinRarity > 0 {
		list = targets.FilterByRarity(list, r.MinRarity)
	}
	return targets.Search(list, r.Query)
}

// checklists filters by observer and date. Validate has already checked the
// date formats.
func (r *Refinement) checklists(list []checklists.Checklist) []checklists.Checklist {
	list = checklists.ByObserver(list, r.Observer)
	if r.Since == "" && r.Until == "" {
		return list
	}

	start := time.Time{}
	end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	if since, err := time.Parse(dateLayout, r.Since); err == nil {
		start = since
	}
	if until, err := time.Parse(dateLayout, r.Until); err == nil {
		end = until.Add(24*time.Hour - time.Nanosecond)
	}
	return checklists.InDateRange(list, start, end)
}

func (r *Refinement) hotspots(list []observation.Hotspot) []observation.Hotspot {
	if r.MinHotspotSpecies > 0 {
		list = ranking.HotspotsWithMinSpecies(list, r.MinHotspotSpecies)
	}
	return ranking.SearchHotspots(list, r.HotspotQuery)
}

// insights runs the comparisons over the unfiltered lists, or returns nil
// when none were asked for.
func (r *Refinement) insights(all []checklists.Checklist, hotspots []observation.Hotspot) *Insights {
	if len(r.CompareChecklists) != 2 && len(r.CompareHotspots) != 2 && r.Near == nil {
		return nil
	}

	in := &Insights{}
	if len(r.CompareChecklists) == 2 {
		first, okFirst := findChecklist(all, r.CompareChecklists[0])
		second, okSecond := findChecklist(all, r.CompareChecklists[1])
		if okFirst && okSecond {
			cmp := checklists.Compare(first, second)
			in.Checklists = &cmp
		}
	}
	if len(r.CompareHotspots) == 2 {
		if cmp, ok := ranking.CompareHotspots(hotspots, r.CompareHotspots[0], r.CompareHotspots[1]); ok {
			in.Hotspots = &cmp
		}
	}
	if r.Near != nil {
		if near, ok := ranking.NearestHotspot(hotspots, *r.Near); ok {
			in.NearestHotspot = &near
		}
	}
	return in
}

func findChecklist(list []checklists.Checklist, id string) (*checklists.Checklist, bool) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}
