package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/observation"
)

var ithacaHotspots = []observation.Hotspot{
	{LocationID: "L99381", Name: "Stewart Park", Lat: 42.4612, Lng: -76.5043, SpeciesAllTime: 248},
	{LocationID: "L123456", Name: "Sapsucker Woods", Lat: 42.4795, Lng: -76.4536, SpeciesAllTime: 261},
	{LocationID: "L777", Name: "Backyard", Lat: 42.44, Lng: -76.50, SpeciesAllTime: 0},
}

func TestNearestHotspot(t *testing.T) {
	t.Parallel()

	near, ok := NearestHotspot(ithacaHotspots, geo.Coordinate{Lat: 42.48, Lng: -76.45})
	require.True(t, ok)
	assert.Equal(t, "L123456", near.Hotspot.LocationID)
	assert.Less(t, near.DistanceKm, 1.0)
	assert.InDelta(t, geo.KmToMiles(near.DistanceKm), near.DistanceMi, 1e-9)

	_, ok = NearestHotspot(nil, geo.Coordinate{})
	assert.False(t, ok)
}

func TestHotspotsWithMinSpecies(t *testing.T) {
	t.Parallel()

	kept := HotspotsWithMinSpecies(ithacaHotspots, 250)
	require.Len(t, kept, 1)
	assert.Equal(t, "Sapsucker Woods", kept[0].Name)

	assert.Len(t, HotspotsWithMinSpecies(ithacaHotspots, 248), 2, "bound is inclusive")
	assert.Len(t, HotspotsWithMinSpecies(ithacaHotspots, 0), 3)
}

func TestSearchHotspots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"L99381", "L123456", "L777"}},
		{"  PARK ", []string{"L99381"}},
		{"l123", []string{"L123456"}},
		{"heron", []string{}},
	}
	for _, tt := range tests {
		got := SearchHotspots(ithacaHotspots, tt.query)
		ids := make([]string, 0, len(got))
		for i := range got {
			ids = append(ids, got[i].LocationID)
		}
		assert.Equal(t, tt.want, ids, "query %q", tt.query)
	}
}

func TestSummarizeHotspots(t *testing.T) {
	t.Parallel()

	summary := SummarizeHotspots(ithacaHotspots)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 261, summary.MaxSpecies)
	assert.Equal(t, 248, summary.MinSpecies, "zero counts are ignored for the minimum")
	assert.InDelta(t, 509.0/3, summary.AverageSpecies, 1e-9)

	assert.Equal(t, HotspotSummary{}, SummarizeHotspots(nil))
	assert.Zero(t, SummarizeHotspots(ithacaHotspots[2:]).MinSpecies)
}

func TestCompareHotspots(t *testing.T) {
	t.Parallel()

	cmp, ok := CompareHotspots(ithacaHotspots, "L99381", "L123456")
	require.True(t, ok)
	assert.Equal(t, 13, cmp.Difference)
	assert.Equal(t, "Sapsucker Woods", cmp.Winner)

	cmp, ok = CompareHotspots(ithacaHotspots, "L123456", "L99381")
	require.True(t, ok)
	assert.Equal(t, 13, cmp.Difference)
	assert.Equal(t, "Sapsucker Woods", cmp.Winner)

	tie := []observation.Hotspot{{LocationID: "A", Name: "a", SpeciesAllTime: 5}, {LocationID: "B", Name: "b", SpeciesAllTime: 5}}
	cmp, ok = CompareHotspots(tie, "A", "B")
	require.True(t, ok)
	assert.Equal(t, "b", cmp.Winner)

	_, ok = CompareHotspots(ithacaHotspots, "L99381", "missing")
	assert.False(t, ok)
}
