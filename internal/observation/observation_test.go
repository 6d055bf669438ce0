package observation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-05-01 07:30", time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC), true},
		{"2024-05-01 07:30:15", time.Date(2024, 5, 1, 7, 30, 15, 0, time.UTC), true},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{" 2024-05-01 ", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2024-13-01", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestObservationDecodesEBirdPayload(t *testing.T) {
	t.Parallel()

	payload := `{
		"speciesCode": "amerob",
		"comName": "American Robin",
		"sciName": "Turdus migratorius",
		"locId": "L123",
		"locName": "Central Park",
		"obsDt": "2024-05-01 07:30",
		"howMany": 3,
		"lat": 40.78,
		"lng": -73.96,
		"obsValid": true,
		"obsReviewed": false,
		"locationPrivate": false,
		"subId": "S1001",
		"userDisplayName": "Pat Doe"
	}`

	var obs Observation
	require.NoError(t, json.Unmarshal([]byte(payload), &obs))

	assert.Equal(t, "amerob", obs.SpeciesCode)
	assert.Equal(t, "American Robin", obs.CommonName)
	assert.Equal(t, "S1001", obs.ChecklistID)
	assert.Equal(t, "Pat Doe", obs.Observer)
	assert.Equal(t, 3, obs.HowMany)
	assert.False(t, obs.HasRarity())

	ts, ok := obs.Time()
	require.True(t, ok)
	assert.Equal(t, 7, ts.Hour())
}

func TestChecklistURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://ebird.org/checklist/S1001", ChecklistURL("S1001"))
	assert.Empty(t, ChecklistURL(""))
}

func TestRarityLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Common", RarityLabel(1))
	assert.Equal(t, "Mega Rare", RarityLabel(5))
	assert.Equal(t, "Extirpated", RarityLabel(6))
	assert.Empty(t, RarityLabel(0))
	assert.Empty(t, RarityLabel(7))
}
