package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/regions"
	"github.com/tphakala/birdscout/internal/search"
)

type stubRegionSource struct {
	notable []observation.Observation
	top     []observation.TopObserver
	err     error
}

func (s *stubRegionSource) NotableObservations(context.Context, string, int) ([]observation.Observation, error) {
	return s.notable, s.err
}

func (s *stubRegionSource) TopObservers(context.Context, string, int) ([]observation.TopObserver, error) {
	return s.top, s.err
}

func setupRegionServer(t *testing.T, src regions.Source) *testEnv {
	t.Helper()

	svc, err := search.NewService(search.DefaultConfig(), search.Dependencies{Observations: &stubFetcher{}})
	require.NoError(t, err)
	regionSvc, err := regions.NewService(src, nil)
	require.NoError(t, err)

	server, err := New(Config{Version: "test"}, svc, nil, nil, WithRegions(regionSvc))
	require.NoError(t, err)
	return &testEnv{server: server}
}

func TestRegionRoutesRequireService(t *testing.T) {
	env := setupTestServer(t, &stubFetcher{}, false)

	rec := env.do(t, http.MethodGet, "/api/v1/regions/US-NY/notable", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNotable(t *testing.T) {
	env := setupRegionServer(t, &stubRegionSource{notable: []observation.Observation{
		{SpeciesCode: "snoowl1", CommonName: "Snowy Owl", Lat: 40.6, Lng: -73.5, ObservedAt: "2026-01-04 09:30"},
	}})

	rec := env.do(t, http.MethodGet, "/api/v1/regions/us-ny/notable?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[regions.Notable](t, rec)
	assert.Equal(t, "US-NY", body.Region)
	assert.Equal(t, 7, body.BackDays)
	require.Len(t, body.Sightings, 1)
	assert.Equal(t, "Snowy Owl", body.Sightings[0].CommonName)

	rec = env.do(t, http.MethodGet, "/api/v1/regions/US-NY/notable?days=week", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLeaderboard(t *testing.T) {
	env := setupRegionServer(t, &stubRegionSource{top: []observation.TopObserver{
		{DisplayName: "Ada Finch", Species: 280},
		{DisplayName: "Bo Wren", Species: 312},
		{DisplayName: "Cy Tern", Species: 150},
	}})

	rec := env.do(t, http.MethodGet, "/api/v1/regions/US-NJ/leaders?year=2025&limit=2&name=ada%20finch&count=140", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[regions.Leaderboard](t, rec)
	assert.Equal(t, 2025, body.Year)
	require.Len(t, body.Observers, 2)
	assert.Equal(t, "Bo Wren", body.Observers[0].DisplayName)
	assert.Equal(t, 3, body.Summary.Total)
	require.NotNil(t, body.Standing)
	assert.Equal(t, 2, body.Standing.Rank)
	require.NotNil(t, body.Progress)
	assert.Equal(t, 172, body.Progress.Difference)
}

func TestGetLeaderboardRejectsBadQuery(t *testing.T) {
	env := setupRegionServer(t, &stubRegionSource{})

	for _, path := range []string{
		"/api/v1/regions/US-NJ/leaders?year=last",
		"/api/v1/regions/US-NJ/leaders?limit=500",
		"/api/v1/regions/US-NJ/leaders?count=many",
	} {
		rec := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRegionUpstreamFailure(t *testing.T) {
	upstream := errors.Newf("eBird unavailable").Category(errors.CategoryNetwork).Build()
	env := setupRegionServer(t, &stubRegionSource{err: upstream})

	rec := env.do(t, http.MethodGet, "/api/v1/regions/US-NJ/leaders", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(errors.CategoryNetwork), decode[ErrorResponse](t, rec).Category)
}
