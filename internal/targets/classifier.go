// Package targets decides which sightings are worth chasing: species missing
// from a personal list, tiered by how often they appear in the search area.
package targets

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/observation"
)

// Tier buckets a species by its share of the raw log.
type Tier string

const (
	TierExpected Tier = "expected"
	TierUncommon Tier = "uncommon"
	TierNotable  Tier = "notable"
	TierRare     Tier = "rare"
)

// Thresholds are the minimum frequency percentages for each tier.
type Thresholds struct {
	Expected float64 `json:"expected" yaml:"expected"`
	Uncommon float64 `json:"uncommon" yaml:"uncommon"`
	Notable  float64 `json:"notable" yaml:"notable"`
}

// DefaultThresholds returns 30% expected, 10% uncommon and 1% notable.
func DefaultThresholds() Thresholds {
	return Thresholds{Expected: 30, Uncommon: 10, Notable: 1}
}

// Validate checks that thresholds are non-negative and descending.
func (t Thresholds) Validate() error {
	if t.Notable < 0 || t.Uncommon < t.Notable || t.Expected < t.Uncommon {
		return errors.Newf("tier thresholds must satisfy expected >= uncommon >= notable >= 0, got %v/%v/%v",
			t.Expected, t.Uncommon, t.Notable).
			Component("targets").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// TierFor maps a frequency percentage to its tier. Boundaries are inclusive.
func (t Thresholds) TierFor(percent float64) Tier {
	switch {
	case percent >= t.Expected:
		return TierExpected
	case percent >= t.Uncommon:
		return TierUncommon
	case percent >= t.Notable:
		return TierNotable
	default:
		return TierRare
	}
}

// Frequency is a species' share of the raw log.
type Frequency struct {
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
	Tier    Tier    `json:"tier" yaml:"tier"`
}

// Frequencies counts each species' observations in raw, keyed by species
// name, and expresses them as a percentage of all observations.
func Frequencies(raw []observation.Observation, thresholds Thresholds) map[string]Frequency {
	counts := make(map[string]int)
	for i := range raw {
		counts[raw[i].SpeciesName()]++
	}

	freqs := make(map[string]Frequency, len(counts))
	total := float64(len(raw))
	for name, count := range counts {
		percent := float64(count) / total * 100
		freqs[name] = Frequency{Count: count, Percent: percent, Tier: thresholds.TierFor(percent)}
	}
	return freqs
}

// Target is a unique sighting of a species missing from the reference list.
type Target struct {
	observation.Observation `yaml:",inline"`
	Frequency               float64 `json:"frequency" yaml:"frequency"`
	Tier                    Tier    `json:"tier" yaml:"tier"`
	RarityLabel             string  `json:"rarityLabel,omitempty" yaml:"rarityLabel,omitempty"`
}

// Result is the classifier output.
type Result struct {
	Targets     []Target             `json:"targets" yaml:"targets"`
	Frequencies map[string]Frequency `json:"frequencies" yaml:"frequencies"`
}

// Classifier selects and tiers targets.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier returns a classifier using thresholds.
func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Thresholds returns the tier thresholds in use.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify keeps the unique sightings whose species is absent from reference,
// matched by common name or species code, and annotates them with frequencies
// computed over raw. The targets are in display order. An empty reference makes every unique sighting a target.
func (c *Classifier) Classify(unique, raw []observation.Observation, reference SpeciesSet) Result {
	freqs := Frequencies(raw, c.thresholds)

	targets := make([]Target, 0, len(unique))
	for i := range unique {
		o := unique[i]
		if reference.Contains(o.SpeciesName()) || reference.Contains(o.SpeciesCode) {
			continue
		}
		targets = append(targets, c.annotate(o, freqs))
	}

	SortForDisplay(targets)
	return Result{Targets: targets, Frequencies: freqs}
}

// ClassifyMode applies the list mode convention: ModeAll yields an empty
// target subset while frequencies are still computed over raw.
func (c *Classifier) ClassifyMode(mode ListMode, unique, raw []observation.Observation, reference SpeciesSet) Result {
	if mode == ModeAll || mode == "" {
		return Result{Targets: []Target{}, Frequencies: Frequencies(raw, c.thresholds)}
	}
	return c.Classify(unique, raw, reference)
}

// Annotate wraps every observation as a Target without filtering. It is used
// when the caller already narrowed the sightings, as in species searches.
func (c *Classifier) Annotate(list, raw []observation.Observation) Result {
	freqs := Frequencies(raw, c.thresholds)

	targets := make([]Target, 0, len(list))
	for i := range list {
		targets = append(targets, c.annotate(list[i], freqs))
	}

	SortForDisplay(targets)
	return Result{Targets: targets, Frequencies: freqs}
}

func (c *Classifier) annotate(o observation.Observation, freqs map[string]Frequency) Target {
	f, ok := freqs[o.SpeciesName()]
	if !ok {
		f = Frequency{Tier: c.thresholds.TierFor(0)}
	}
	return Target{
		Observation: o,
		Frequency:   f.Percent,
		Tier:        f.Tier,
		RarityLabel: observation.RarityLabel(o.RarityCode),
	}
}

// SortForDisplay orders targets in place: rarity code descending, with
// targets lacking a code after every coded one, then common name ascending
// ignoring case. The sort is stable.
func SortForDisplay(targets []Target) {
	collator := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(targets, func(a, b Target) int {
		if c := cmp.Compare(displayRarity(&b), displayRarity(&a)); c != 0 {
			return c
		}
		return collator.CompareString(a.CommonName, b.CommonName)
	})
}

// displayRarity buckets missing codes below the most common rarity.
func displayRarity(t *Target) int {
	if t.HasRarity() {
		return t.RarityCode
	}
	return 0
}

// Cards returns one target per species name, keeping the first in display order.
func Cards(targets []Target) []Target {
	seen := make(map[string]struct{}, len(targets))
	cards := make([]Target, 0, len(targets))
	for i := range targets {
		key := normalizeName(targets[i].SpeciesName())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cards = append(cards, targets[i])
	}
	return cards
}

// FilterByRarity keeps targets whose rarity code is present and at least minCode.
func FilterByRarity(targets []Target, minCode int) []Target {
	filtered := make([]Target, 0, len(targets))
	for i := range targets {
		if targets[i].HasRarity() && targets[i].RarityCode >= minCode {
			filtered = append(filtered, targets[i])
		}
	}
	return filtered
}

// Search keeps targets whose common, scientific or location name contains
// query, ignoring case. A blank query returns targets unchanged.
func Search(targets []Target, query string) []Target {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return targets
	}

	matched := make([]Target, 0)
	for i := range targets {
		t := &targets[i]
		if strings.Contains(strings.ToLower(t.CommonName), query) ||
			strings.Contains(strings.ToLower(t.ScientificName), query) ||
			strings.Contains(strings.ToLower(t.LocationName), query) {
			matched = append(matched, *t)
		}
	}
	return matched
}
