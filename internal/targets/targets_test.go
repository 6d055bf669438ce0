package targets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/observation"
)

func sighting(name string, rarity int, at string) observation.Observation {
	return observation.Observation{
		SpeciesCode:  name,
		CommonName:   name,
		RarityCode:   rarity,
		ObservedAt:   at,
		LocationName: "Marsh",
	}
}

func names(targets []Target) []string {
	out := make([]string, len(targets))
	for i := range targets {
		out[i] = targets[i].CommonName
	}
	return out
}

func TestParseListMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ListMode{"": ModeAll, "all": ModeAll, "LIFE": ModeLife, " year ": ModeYear, "month": ModeMonth} {
		got, err := ParseListMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseListMode("decade")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestTierBoundaries(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	tests := []struct {
		percent float64
		want    Tier
	}{
		{100, TierExpected},
		{30, TierExpected},
		{29.999, TierUncommon},
		{10, TierUncommon},
		{9.99, TierNotable},
		{1, TierNotable},
		{0.99, TierRare},
		{0, TierRare},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.TierFor(tt.percent), "%v%%", tt.percent)
	}
}

func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Expected: 5, Uncommon: 10, Notable: 1}.Validate())
	assert.Error(t, Thresholds{Expected: 30, Uncommon: 10, Notable: -1}.Validate())
}

func TestFrequencies(t *testing.T) {
	t.Parallel()

	raw := make([]observation.Observation, 0, 100)
	for range 35 {
		raw = append(raw, sighting("Robin", 0, ""))
	}
	for range 10 {
		raw = append(raw, sighting("Jay", 0, ""))
	}
	for range 54 {
		raw = append(raw, sighting("Crow", 0, ""))
	}
	raw = append(raw, sighting("Owl", 0, ""))

	freqs := Frequencies(raw, DefaultThresholds())
	assert.Equal(t, TierExpected, freqs["Robin"].Tier)
	assert.Equal(t, TierUncommon, freqs["Jay"].Tier)
	assert.Equal(t, TierNotable, freqs["Owl"].Tier)
	assert.Equal(t, 35, freqs["Robin"].Count)
	assert.InDelta(t, 35.0, freqs["Robin"].Percent, 1e-9)

	assert.Empty(t, Frequencies(nil, DefaultThresholds()))
}

func TestClassifyExcludesReferenceSpecies(t *testing.T) {
	t.Parallel()

	unique := []observation.Observation{
		sighting("Robin", 0, "2024-05-01"),
		sighting("Jay", 0, "2024-05-01"),
	}
	raw := append(append([]observation.Observation{}, unique...), sighting("Robin", 0, "2024-05-02"))

	c := NewClassifier(DefaultThresholds())
	result := c.Classify(unique, raw, NewSpeciesSet("robin"))

	require.Len(t, result.Targets, 1)
	assert.Equal(t, "Jay", result.Targets[0].CommonName)
	assert.InDelta(t, 100.0/3, result.Targets[0].Frequency, 1e-9)
	assert.Equal(t, TierExpected, result.Targets[0].Tier)
}

func TestClassifyModeAllHasNoTargets(t *testing.T) {
	t.Parallel()

	unique := []observation.Observation{sighting("Robin", 0, ""), sighting("Jay", 0, "")}
	refs := BuildReferenceLists([]Entry{{CommonName: "Robin"}}, time.Now())
	set, err := refs.ForMode(ModeAll)
	require.NoError(t, err)

	c := NewClassifier(DefaultThresholds())
	result := c.ClassifyMode(ModeAll, unique, unique, set)
	assert.Empty(t, result.Targets)
	assert.NotNil(t, result.Targets)
	assert.Len(t, result.Frequencies, 2)

	// An empty reference set on its own filters nothing
	assert.Len(t, c.Classify(unique, unique, set).Targets, 2)

	life, err := refs.ForMode(ModeLife)
	require.NoError(t, err)
	result = c.ClassifyMode(ModeLife, unique, unique, life)
	require.Len(t, result.Targets, 1)
	assert.Equal(t, "Jay", result.Targets[0].CommonName)
}

func TestClassifyEmptyInputs(t *testing.T) {
	t.Parallel()

	result := NewClassifier(DefaultThresholds()).Classify(nil, nil, nil)
	assert.Empty(t, result.Targets)
	assert.NotNil(t, result.Targets)
}

func TestSortForDisplay(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Osprey", 1, "")},
		{Observation: sighting("Crane", 3, "")},
		{Observation: sighting("Owl", 0, "")},
		{Observation: sighting("Auk", 5, "")},
		{Observation: sighting("blackbird", 0, "")},
	}

	SortForDisplay(targets)
	assert.Equal(t, []string{"Auk", "Crane", "Osprey", "blackbird", "Owl"}, names(targets))
}

func TestSortForDisplayIsOrderIndependent(t *testing.T) {
	t.Parallel()

	// Name order alone would put Alpha < Beta < Gamma while rarity puts
	// Gamma before Alpha. Every input order must agree on one result.
	alpha := Target{Observation: sighting("Alpha", 1, "")}
	beta := Target{Observation: sighting("Beta", 0, "")}
	gamma := Target{Observation: sighting("Gamma", 3, "")}

	perms := [][]Target{
		{alpha, beta, gamma},
		{alpha, gamma, beta},
		{beta, alpha, gamma},
		{beta, gamma, alpha},
		{gamma, alpha, beta},
		{gamma, beta, alpha},
	}
	for _, p := range perms {
		in := names(p)
		SortForDisplay(p)
		assert.Equal(t, []string{"Gamma", "Alpha", "Beta"}, names(p), "input %v", in)
	}
}

func TestSortForDisplayRarityThenName(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Zebra Dove", 2, "")},
		{Observation: sighting("Alder Flycatcher", 2, "")},
		{Observation: sighting("Kirtland's Warbler", 4, "")},
	}

	SortForDisplay(targets)
	assert.Equal(t, []string{"Kirtland's Warbler", "Alder Flycatcher", "Zebra Dove"}, names(targets))
}

func TestBuildReferenceLists(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{CommonName: "Robin", LastSeen: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
		{CommonName: "Jay", LastSeen: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)},
		{CommonName: "Crow", LastSeen: time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)},
		{CommonName: "Owl"},
		{CommonName: "crow", LastSeen: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{CommonName: "  "},
	}

	lists := BuildReferenceLists(entries, now)
	assert.Equal(t, []string{"crow", "jay", "owl", "robin"}, lists.Life.Names())
	assert.Equal(t, []string{"crow", "jay", "robin"}, lists.Year.Names())
	assert.Equal(t, []string{"crow", "robin"}, lists.Month.Names())
}

type fakeLister struct {
	codes   []string
	err     error
	regions []string
}

func (f *fakeLister) SpeciesList(_ context.Context, region string) ([]string, error) {
	f.regions = append(f.regions, region)
	return f.codes, f.err
}

func TestRegionReference(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{codes: []string{"amerob", "norcar"}}
	ref := NewRegionReference(lister, " us-ny ")
	assert.Equal(t, "US-NY", ref.Region())

	all, err := ref.ReferenceSet(t.Context(), ModeAll)
	require.NoError(t, err)
	assert.Zero(t, all.Len())
	assert.Empty(t, lister.regions, "ModeAll must not fetch")

	for _, mode := range []ListMode{ModeLife, ModeYear, ModeMonth} {
		set, err := ref.ReferenceSet(t.Context(), mode)
		require.NoError(t, err)
		assert.Equal(t, []string{"amerob", "norcar"}, set.Names())
	}
	assert.Equal(t, []string{"US-NY", "US-NY", "US-NY"}, lister.regions)

	_, err = ref.ReferenceSet(t.Context(), "decade")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	failing := NewRegionReference(&fakeLister{err: errors.NewStd("upstream down")}, "US")
	_, err = failing.ReferenceSet(t.Context(), ModeLife)
	assert.True(t, errors.IsCategory(err, errors.CategoryReferences))
}

func TestClassifyMatchesSpeciesCodes(t *testing.T) {
	t.Parallel()

	robin := observation.Observation{SpeciesCode: "amerob", CommonName: "American Robin"}
	vagrant := observation.Observation{SpeciesCode: "fieldf", CommonName: "Fieldfare"}
	unique := []observation.Observation{robin, vagrant}

	result := NewClassifier(DefaultThresholds()).Classify(unique, unique, NewSpeciesSet("amerob"))
	assert.Equal(t, []string{"Fieldfare"}, names(result.Targets))
}

func TestReferenceListsForMode(t *testing.T) {
	t.Parallel()

	lists := BuildReferenceLists([]Entry{{CommonName: "Robin"}}, time.Now())

	life, err := lists.ReferenceSet(context.Background(), ModeLife)
	require.NoError(t, err)
	assert.True(t, life.Contains("ROBIN"))

	year, err := lists.ForMode(ModeYear)
	require.NoError(t, err)
	assert.Zero(t, year.Len(), "an undated entry must not fall back into the year list")

	_, err = lists.ForMode("decade")
	require.Error(t, err)
}

func TestCards(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Auk", 5, "2024-05-01")},
		{Observation: sighting("Auk", 5, "2024-05-02")},
		{Observation: sighting("Jay", 0, "2024-05-01")},
	}

	cards := Cards(targets)
	require.Len(t, cards, 2)
	assert.Equal(t, "2024-05-01", cards[0].ObservedAt)
}

func TestFilterByRarityAndSearch(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Auk", 5, "")},
		{Observation: sighting("Jay", 2, "")},
		{Observation: sighting("Owl", 0, "")},
	}
	targets[1].ScientificName = "Cyanocitta cristata"

	assert.Equal(t, []string{"Auk"}, names(FilterByRarity(targets, 3)))
	assert.Equal(t, []string{"Jay"}, names(Search(targets, "cyanocitta")))
	assert.Len(t, Search(targets, "marsh"), 3)
	assert.Len(t, Search(targets, ""), 3)
}

func TestReport(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Auk", 5, "2024-05-01 06:00"), Tier: TierRare},
		{Observation: sighting("Auk", 5, "2024-05-03 06:00"), Tier: TierRare},
		{Observation: sighting("Jay", 0, "2024-05-04 06:00"), Tier: TierExpected},
		{Observation: sighting("Owl", 0, "unknown"), Tier: TierNotable},
	}
	raw := []observation.Observation{
		sighting("Auk", 5, ""), sighting("Auk", 5, ""), sighting("Jay", 0, ""),
	}

	report := Report(targets, raw)
	require.Len(t, report, 3)
	assert.Equal(t, "Jay", report[0].CommonName)
	assert.Equal(t, "Auk", report[1].CommonName)
	assert.Equal(t, "2024-05-03 06:00", report[1].LastSeenAt)
	assert.Equal(t, 2, report[1].Sightings)
	assert.Equal(t, "Owl", report[2].CommonName)
	assert.Zero(t, report[2].Sightings)
}

func TestStatistics(t *testing.T) {
	t.Parallel()

	targets := []Target{
		{Observation: sighting("Auk", 5, ""), Tier: TierRare},
		{Observation: sighting("Auk", 5, ""), Tier: TierRare},
		{Observation: sighting("Jay", 0, ""), Tier: TierExpected},
	}

	stats := Statistics(targets)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Species)
	assert.Equal(t, 1, stats.ByTier[TierRare])
	assert.Equal(t, 1, stats.ByTier[TierExpected])
	assert.Zero(t, stats.ByTier[TierUncommon])
}
