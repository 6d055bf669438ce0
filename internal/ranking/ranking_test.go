package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/checklists"
	"github.com/tphakala/birdscout/internal/observation"
)

func checklist(id string, species ...string) checklists.Checklist {
	return checklists.Checklist{ID: id, Species: species}
}

func ids(list []checklists.Checklist) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = list[i].ID
	}
	return out
}

func TestChecklistsStableDescending(t *testing.T) {
	t.Parallel()

	input := []checklists.Checklist{
		checklist("A", "x", "y", "z"),
		checklist("B", "x"),
		checklist("C", "x", "y", "z"),
	}

	ranked := Checklists(input, 2)
	assert.Equal(t, []string{"A", "C"}, ids(ranked))
	assert.Equal(t, []string{"A", "B", "C"}, ids(input), "input must not be reordered")
}

func TestTopNDefaultsToTen(t *testing.T) {
	t.Parallel()

	input := make([]checklists.Checklist, 15)
	for i := range input {
		input[i] = checklist(string(rune('a' + i)))
	}

	assert.Len(t, Checklists(input, 0), DefaultTopN)
	assert.Len(t, Checklists(input, -3), DefaultTopN)
	assert.Len(t, Checklists(input, 20), 15)
}

func TestTopNProperties(t *testing.T) {
	t.Parallel()

	input := []int{5, 1, 9, 9, 3, 7, 1, 0, 4}
	ranked := TopN(input, 4, func(v *int) int { return *v })

	require.Len(t, ranked, 4)
	assert.Equal(t, []int{9, 9, 7, 5}, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1], ranked[i])
	}
}

func TestTopNEmpty(t *testing.T) {
	t.Parallel()

	ranked := TopN([]int(nil), 3, func(v *int) int { return *v })
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestHotspots(t *testing.T) {
	t.Parallel()

	input := []observation.Hotspot{
		{LocationID: "L1", SpeciesAllTime: 120},
		{LocationID: "L2", SpeciesAllTime: 300},
		{LocationID: "L3", SpeciesAllTime: 120},
	}

	ranked := Hotspots(input, 10)
	require.Len(t, ranked, 3)
	assert.Equal(t, "L2", ranked[0].LocationID)
	assert.Equal(t, "L1", ranked[1].LocationID)
	assert.Equal(t, "L3", ranked[2].LocationID)
}

func TestUniqueHotspots(t *testing.T) {
	t.Parallel()

	input := []observation.Hotspot{
		{LocationID: "L1", Name: "first"},
		{LocationID: "L2"},
		{LocationID: "L1", Name: "second"},
	}

	unique := UniqueHotspots(input)
	require.Len(t, unique, 2)
	assert.Equal(t, "first", unique[0].Name)
	assert.Equal(t, "L2", unique[1].LocationID)
}

func BenchmarkChecklists(b *testing.B) {
	input := make([]checklists.Checklist, 500)
	for i := range input {
		input[i] = checklists.Checklist{ID: "S", Species: make([]string, i%37)}
	}

	for b.Loop() {
		_ = Checklists(input, DefaultTopN)
	}
}
