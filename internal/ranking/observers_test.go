package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/observation"
)

func leaderboard() []observation.TopObserver {
	return []observation.TopObserver{
		{DisplayName: "Ada Finch", Species: 280},
		{DisplayName: "Bo Wren", Species: 312},
		{DisplayName: "Cy Tern", Species: 150},
		{DisplayName: "Di Kite", Species: 280},
	}
}

func TestObserversRenumbers(t *testing.T) {
	t.Parallel()

	ranked := Observers(leaderboard(), 0)
	require.Len(t, ranked, 4)
	names := []string{ranked[0].DisplayName, ranked[1].DisplayName, ranked[2].DisplayName, ranked[3].DisplayName}
	assert.Equal(t, []string{"Bo Wren", "Ada Finch", "Di Kite", "Cy Tern"}, names)
	for i := range ranked {
		assert.Equal(t, i+1, ranked[i].Rank)
	}
}

func TestSummarizeObservers(t *testing.T) {
	t.Parallel()

	summary := SummarizeObservers(leaderboard())
	assert.Equal(t, 4, summary.Total)
	assert.InDelta(t, 255.5, summary.AverageSpecies, 1e-9)
	assert.InDelta(t, 280.0, summary.MedianSpecies, 1e-9)
	assert.Equal(t, 312, summary.MaxSpecies)
	assert.Equal(t, 150, summary.MinSpecies)

	odd := SummarizeObservers(leaderboard()[:3])
	assert.InDelta(t, 280.0, odd.MedianSpecies, 1e-9)

	assert.Equal(t, ObserverSummary{}, SummarizeObservers(nil))
}

func TestSearchObservers(t *testing.T) {
	t.Parallel()

	assert.Len(t, SearchObservers(leaderboard(), ""), 4)
	matched := SearchObservers(leaderboard(), "WREN")
	require.Len(t, matched, 1)
	assert.Equal(t, 312, matched[0].Species)
}

func TestObserverStanding(t *testing.T) {
	t.Parallel()

	ranked := Observers(leaderboard(), 0)

	standing, ok := ObserverStanding(ranked, "di kite")
	require.True(t, ok)
	assert.Equal(t, 3, standing.Rank)
	assert.True(t, standing.TopTen)

	_, ok = ObserverStanding(ranked, "Di")
	assert.False(t, ok, "names match exactly")
	_, ok = ObserverStanding(ranked, " ")
	assert.False(t, ok)
}

func TestCompareWithLeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		personal        int
		leader          int
		wantDifference  int
		wantPercent     float64
		wantMessagePart string
	}{
		{"behind", 100, 312, 212, 32.1, "212 fewer"},
		{"ahead", 320, 312, -8, 102.6, "8 more"},
		{"tied", 312, 312, 0, 100, "tied"},
		{"empty leaderboard", 10, 0, -10, 0, "10 more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := CompareWithLeader(tt.personal, tt.leader)
			assert.Equal(t, tt.wantDifference, p.Difference)
			assert.InDelta(t, tt.wantPercent, p.PercentOfLeader, 1e-9)
			assert.Contains(t, p.Message, tt.wantMessagePart)
		})
	}
}
