package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/observation"
	"github.com/tphakala/birdscout/internal/planner"
	"github.com/tphakala/birdscout/internal/routing"
	"github.com/tphakala/birdscout/internal/targets"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeFetcher serves canned observations per call index and records the
// order of requested points.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    []geo.Coordinate
	radius   []float64
	backDays []int
	respond  func(call int, point geo.Coordinate) ([]observation.Observation, error)
}

func (f *fakeFetcher) RecentObservations(_ context.Context, point geo.Coordinate, radiusKm float64, backDays int) ([]observation.Observation, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, point)
	f.radius = append(f.radius, radiusKm)
	f.backDays = append(f.backDays, backDays)
	f.mu.Unlock()
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(call, point)
}

type fakeHotspots struct {
	calls   int
	respond func(call int) ([]observation.Hotspot, error)
}

func (f *fakeHotspots) Hotspots(_ context.Context, _ geo.Coordinate, _ float64) ([]observation.Hotspot, error) {
	call := f.calls
	f.calls++
	return f.respond(call)
}

type fakeRegion struct {
	region string
	raw    []observation.Observation
	err    error
}

func (f *fakeRegion) RegionObservations(_ context.Context, region string, _, _ int) ([]observation.Observation, error) {
	f.region = region
	return f.raw, f.err
}

type fakeRouter struct {
	route *routing.Route
	err   error
}

func (f *fakeRouter) Route(_ context.Context, origin, destination geo.Coordinate, _ []geo.Coordinate) (*routing.Route, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.route != nil {
		return f.route, nil
	}
	return &routing.Route{Path: []geo.Coordinate{origin, destination}, DistanceKm: geo.DistanceKm(origin, destination)}, nil
}

type countingRecorder struct {
	ops    map[string]int
	errors map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ops: map[string]int{}, errors: map[string]int{}}
}

func (r *countingRecorder) RecordOperation(op, status string) { r.ops[op+"/"+status]++ }
func (r *countingRecorder) RecordDuration(string, float64)    {}
func (r *countingRecorder) RecordError(op, errType string)    { r.errors[op+"/"+errType]++ }

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func sighting(code, name, checklist string, lat, lng float64, at string) observation.Observation {
	return observation.Observation{
		SpeciesCode: code,
		CommonName:  name,
		ChecklistID: checklist,
		Lat:         lat,
		Lng:         lng,
		ObservedAt:  at,
	}
}

func pointsN(n int) []geo.Coordinate {
	pts := make([]geo.Coordinate, n)
	for i := range pts {
		pts[i] = geo.Coordinate{Lat: 40 + float64(i)*0.1, Lng: -75}
	}
	return pts
}

func TestOrchestratorVisitsPointsInOrderAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(call int, _ geo.Coordinate) ([]observation.Observation, error) {
		if call == 1 {
			return nil, fmt.Errorf("upstream 503")
		}
		return []observation.Observation{
			sighting("bluja", "Blue Jay", fmt.Sprintf("S%d", call), 1, 1, "2024-01-01"),
		}, nil
	}}
	rec := newCountingRecorder()
	o := NewOrchestrator(fetcher, nil, rec)

	points := pointsN(4)
	var snaps []Snapshot
	run, err := o.Run(t.Context(), points, RunOptions{RadiusKm: 10, LookbackDays: 7, SnapshotStride: 1}, func(s Snapshot) {
		snaps = append(snaps, s)
	})
	require.NoError(t, err)

	assert.Equal(t, points, fetcher.calls)
	assert.Equal(t, []float64{10, 10, 10, 10}, fetcher.radius)
	assert.Equal(t, []int{7, 7, 7, 7}, fetcher.backDays)
	assert.Equal(t, []int{1}, run.FailedPoints)
	assert.Equal(t, 4, run.Completed)
	assert.Len(t, run.Raw, 3)

	require.Len(t, snaps, 4)
	// Snapshots grow monotonically and a failed point still checkpoints
	for i, s := range snaps {
		assert.Equal(t, i+1, s.Completed)
		assert.Equal(t, 4, s.Total)
		if i > 0 {
			assert.GreaterOrEqual(t, len(s.Raw), len(snaps[i-1].Raw))
		}
	}
	assert.Len(t, snaps[1].Raw, 1)
	assert.Equal(t, 1, snaps[1].FailedPoints)
	assert.True(t, snaps[3].Final)
	assert.Len(t, snaps[3].Unique, 1)

	assert.Equal(t, 3, rec.ops[metrics.OpPointFetch+"/"+metrics.StatusSuccess])
	assert.Equal(t, 1, rec.ops[metrics.OpPointFetch+"/"+metrics.StatusError])
	assert.Equal(t, 1, rec.errors[metrics.OpPointFetch+"/"+string(errors.CategoryFetch)])
}

func TestOrchestratorSnapshotStride(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(&fakeFetcher{}, nil, nil)
	var completed []int
	_, err := o.Run(t.Context(), pointsN(12), RunOptions{SnapshotStride: 5}, func(s Snapshot) {
		completed = append(completed, s.Completed)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 10, 12}, completed)
}

func TestOrchestratorSnapshotsDoNotAliasLaterAppends(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(call int, _ geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{sighting(fmt.Sprintf("sp%d", call), "", "", 0, 0, "")}, nil
	}}
	o := NewOrchestrator(fetcher, nil, nil)

	var first Snapshot
	_, err := o.Run(t.Context(), pointsN(3), RunOptions{SnapshotStride: 1}, func(s Snapshot) {
		if s.Completed == 1 {
			first = s
		}
	})
	require.NoError(t, err)
	require.Len(t, first.Raw, 1)
	assert.Equal(t, "sp0", first.Raw[0].SpeciesCode)
	assert.Equal(t, 1, cap(first.Raw))
}

func TestOrchestratorHotspotStrideAndDedup(t *testing.T) {
	t.Parallel()

	hotspots := &fakeHotspots{respond: func(call int) ([]observation.Hotspot, error) {
		if call == 1 {
			return nil, fmt.Errorf("timeout")
		}
		return []observation.Hotspot{
			{LocationID: "L1", SpeciesAllTime: 200},
			{LocationID: fmt.Sprintf("L%d", call+10), SpeciesAllTime: 100},
		}, nil
	}}
	o := NewOrchestrator(&fakeFetcher{}, hotspots, nil)

	run, err := o.Run(t.Context(), pointsN(7), RunOptions{HotspotStride: 3}, nil)
	require.NoError(t, err)

	// Points 0, 3 and 6
	assert.Equal(t, 3, hotspots.calls)
	assert.Equal(t, 1, run.HotspotFailures)
	ids := make([]string, 0, len(run.Hotspots))
	for _, h := range run.Hotspots {
		ids = append(ids, h.LocationID)
	}
	assert.Equal(t, []string{"L1", "L10", "L12"}, ids)
}

func TestOrchestratorCancellationKeepsPartialLog(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	fetcher := &fakeFetcher{respond: func(call int, _ geo.Coordinate) ([]observation.Observation, error) {
		if call == 1 {
			cancel()
		}
		return []observation.Observation{sighting("amerob", "American Robin", "S1", 0, 0, "")}, nil
	}}
	o := NewOrchestrator(fetcher, nil, nil)

	run, err := o.Run(ctx, pointsN(5), RunOptions{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, run.Completed)
	assert.Len(t, run.Raw, 2)
	assert.Len(t, fetcher.calls, 2)
}

func TestOrchestratorEmptyPlan(t *testing.T) {
	t.Parallel()

	called := false
	run, err := NewOrchestrator(&fakeFetcher{}, nil, nil).Run(t.Context(), nil, RunOptions{}, func(Snapshot) { called = true })
	require.NoError(t, err)
	assert.Empty(t, run.Raw)
	assert.False(t, called)
}

func newTestService(t *testing.T, deps Dependencies, mutate ...func(*Config)) *Service {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	svc, err := NewService(cfg, deps)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresFetcher(t *testing.T) {
	t.Parallel()

	_, err := NewService(DefaultConfig(), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	cfg := DefaultConfig()
	cfg.Thresholds = targets.Thresholds{Expected: 1, Uncommon: 10, Notable: 30}
	_, err = NewService(cfg, Dependencies{Observations: &fakeFetcher{}})
	require.Error(t, err)
}

func TestSearchPointPipeline(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(int, geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{
			sighting("bluja", "Blue Jay", "S1", 1, 1, "2024-01-01"),
			sighting("bluja", "Blue Jay", "S2", 1, 1, "2024-01-05"),
			sighting("amerob", "American Robin", "S1", 1, 1, "2024-01-01"),
			sighting("norcar", "Northern Cardinal", "", 2, 2, "2024-01-02"),
		}, nil
	}}
	hotspots := &fakeHotspots{respond: func(int) ([]observation.Hotspot, error) {
		return []observation.Hotspot{
			{LocationID: "A", SpeciesAllTime: 50},
			{LocationID: "B", SpeciesAllTime: 80},
			{LocationID: "C", SpeciesAllTime: 30},
		}, nil
	}}
	rec := newCountingRecorder()
	svc := newTestService(t, Dependencies{
		Observations: fetcher,
		Hotspots:     hotspots,
		References:   targets.BuildReferenceLists([]targets.Entry{{CommonName: "american robin"}}, testNow),
		Recorder:     rec,
	})

	var snaps int
	res, err := svc.Search(t.Context(), Request{
		Mode:     ModePoint,
		Point:    &geo.Coordinate{Lat: 42.45, Lng: -76.47},
		RadiusKm: 80,
		ListMode: "life",
		TopN:     2,
	}, func(Snapshot) { snaps++ })
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, snaps)
	assert.InDelta(t, MaxRadiusKm, res.RadiusKm, 1e-9)
	assert.Equal(t, DefaultLookbackDays, res.LookbackDays)
	assert.Equal(t, []float64{MaxRadiusKm}, fetcher.radius)

	require.Len(t, res.UniqueSightings, 3)
	for _, u := range res.UniqueSightings {
		if u.SpeciesCode == "bluja" {
			assert.Equal(t, "2024-01-05", u.ObservedAt)
		}
	}

	require.Len(t, res.Checklists, 2)
	assert.Equal(t, "S1", res.Checklists[0].ID)
	assert.Equal(t, 2, res.Checklists[0].SpeciesCount())

	require.Len(t, res.Hotspots, 2)
	assert.Equal(t, "B", res.Hotspots[0].LocationID)
	assert.Equal(t, "A", res.Hotspots[1].LocationID)

	names := make([]string, 0, len(res.Targets))
	for _, tg := range res.Targets {
		names = append(names, tg.CommonName)
	}
	assert.Equal(t, []string{"Blue Jay", "Northern Cardinal"}, names)
	assert.InDelta(t, 50.0, res.Frequencies["Blue Jay"].Percent, 1e-9)

	assert.Equal(t, 4, res.Stats.RawObservations)
	assert.Equal(t, 3, res.Stats.UniqueSightings)
	assert.Equal(t, 2, res.Stats.Checklists)
	assert.Equal(t, 1, rec.ops[metrics.OpSearch+"/"+metrics.StatusSuccess])
}

func TestSearchModeAllHasNoTargets(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(int, geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{sighting("bluja", "Blue Jay", "S1", 1, 1, "2024-01-01")}, nil
	}}
	svc := newTestService(t, Dependencies{Observations: fetcher})

	res, err := svc.Search(t.Context(), Request{Mode: ModePoint, Point: &geo.Coordinate{Lat: 1, Lng: 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, targets.ModeAll, res.ListMode)
	assert.NotNil(t, res.Targets)
	assert.Empty(t, res.Targets)
	assert.Contains(t, res.Frequencies, "Blue Jay")
}

func TestSearchTotalFailureIsEmptyResult(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(int, geo.Coordinate) ([]observation.Observation, error) {
		return nil, fmt.Errorf("connection refused")
	}}
	rec := newCountingRecorder()
	svc := newTestService(t, Dependencies{Observations: fetcher, Recorder: rec})

	res, err := svc.Search(t.Context(), Request{
		Mode: ModeBox,
		Box:  &geo.BoundingBox{South: 42, West: -77, North: 42.5, East: -76.5},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.UniqueSightings)
	assert.Empty(t, res.Checklists)
	assert.Empty(t, res.Targets)
	assert.Equal(t, res.Stats.SamplePoints, res.Stats.FailedPoints)
	assert.Equal(t, 1, rec.ops[metrics.OpSearch+"/"+metrics.StatusPartial])
}

func TestSearchInvalidInputFailsBeforeFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
	}{
		{"missing mode", Request{}},
		{"unknown mode", Request{Mode: "circle"}},
		{"point without coordinate", Request{Mode: ModePoint}},
		{"latitude out of range", Request{Mode: ModePoint, Point: &geo.Coordinate{Lat: 91}}},
		{"box inverted", Request{Mode: ModeBox, Box: &geo.BoundingBox{South: 10, North: 5}}},
		{"route without destination", Request{Mode: ModeRoute, Origin: &geo.Coordinate{}}},
		{"region without code", Request{Mode: ModeRegion}},
		{"bad list mode", Request{Mode: ModePoint, Point: &geo.Coordinate{}, ListMode: "decade"}},
		{"negative radius", Request{Mode: ModePoint, Point: &geo.Coordinate{}, RadiusKm: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fetcher := &fakeFetcher{}
			svc := newTestService(t, Dependencies{Observations: fetcher, Regions: &fakeRegion{}, Router: &fakeRouter{}})

			res, err := svc.Search(t.Context(), tt.req, nil)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation), "got %v", err)
			assert.Empty(t, fetcher.calls)
		})
	}
}

func TestSearchListModeRequiresReferences(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, Dependencies{Observations: &fakeFetcher{}})
	_, err := svc.Search(t.Context(), Request{Mode: ModePoint, Point: &geo.Coordinate{}, ListMode: "year"}, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestSearchSpeciesAroundPointUsesGrid(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{respond: func(call int, p geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{
			sighting("snobun", "Snow Bunting", fmt.Sprintf("S%d", call), p.Lat, p.Lng, "2024-02-01"),
			sighting("amerob", "American Robin", fmt.Sprintf("S%d", call), p.Lat, p.Lng, "2024-02-01"),
		}, nil
	}}
	svc := newTestService(t, Dependencies{Observations: fetcher}, func(c *Config) {
		c.Planner = planner.Options{SpacingKm: 10, MaxPoints: 100}
	})

	res, err := svc.Search(t.Context(), Request{
		Mode:        ModePoint,
		Point:       &geo.Coordinate{Lat: 42, Lng: -76},
		RadiusKm:    10,
		SpeciesCode: "snobun",
	}, nil)
	require.NoError(t, err)
	assert.Greater(t, len(fetcher.calls), 1)
	require.NotEmpty(t, res.UniqueSightings)
	for _, u := range res.UniqueSightings {
		assert.Equal(t, "snobun", u.SpeciesCode)
	}
	assert.Len(t, res.Targets, len(res.UniqueSightings))
	// Checklists still count every species reported
	assert.Equal(t, 2, res.Checklists[0].SpeciesCount())
}

func TestSearchRoute(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	router := &fakeRouter{route: &routing.Route{
		Path:       []geo.Coordinate{{Lat: 42, Lng: -76}, {Lat: 43, Lng: -76}},
		DistanceKm: 111,
		Provider:   routing.ProviderStraight,
	}}
	svc := newTestService(t, Dependencies{Observations: fetcher, Router: router})

	res, err := svc.Search(t.Context(), Request{
		Mode:        ModeRoute,
		Origin:      &geo.Coordinate{Lat: 42, Lng: -76},
		Destination: &geo.Coordinate{Lat: 43, Lng: -76},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Route)
	require.GreaterOrEqual(t, len(fetcher.calls), 2)
	assert.Equal(t, geo.Coordinate{Lat: 42, Lng: -76}, fetcher.calls[0])
	assert.Equal(t, geo.Coordinate{Lat: 43, Lng: -76}, fetcher.calls[len(fetcher.calls)-1])
}

func TestSearchRouteFailureIsFatal(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	routeErr := errors.Newf("no route").Component("routing").Category(errors.CategoryRouting).Build()
	svc := newTestService(t, Dependencies{Observations: fetcher, Router: &fakeRouter{err: routeErr}})

	_, err := svc.Search(t.Context(), Request{
		Mode:        ModeRoute,
		Origin:      &geo.Coordinate{Lat: 42, Lng: -76},
		Destination: &geo.Coordinate{Lat: 43, Lng: -76},
	}, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryRouting))
	assert.Empty(t, fetcher.calls)
}

func TestSearchRegion(t *testing.T) {
	t.Parallel()

	region := &fakeRegion{raw: []observation.Observation{
		sighting("bluja", "Blue Jay", "S1", 42, -76, "2024-01-01"),
		sighting("bluja", "Blue Jay", "S2", 42, -76, "2024-01-03"),
	}}
	hotspots := &fakeHotspots{respond: func(int) ([]observation.Hotspot, error) {
		return nil, fmt.Errorf("hotspot service down")
	}}
	svc := newTestService(t, Dependencies{Observations: &fakeFetcher{}, Regions: region, Hotspots: hotspots})

	var final Snapshot
	res, err := svc.Search(t.Context(), Request{Mode: ModeRegion, Region: "US-NY"}, func(s Snapshot) { final = s })
	require.NoError(t, err)
	assert.Equal(t, "US-NY", region.region)
	require.Len(t, res.UniqueSightings, 1)
	assert.Equal(t, "2024-01-03", res.UniqueSightings[0].ObservedAt)
	assert.Empty(t, res.Hotspots)
	assert.Equal(t, 1, res.Stats.HotspotFailures)
	assert.True(t, final.Final)
	assert.Len(t, final.Raw, 2)
}

func TestSearchRegionFailureIsIsolated(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, Dependencies{
		Observations: &fakeFetcher{},
		Regions:      &fakeRegion{err: fmt.Errorf("bad gateway")},
	})
	res, err := svc.Search(t.Context(), Request{Mode: ModeRegion, Region: "US-NY"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.UniqueSightings)
	assert.Equal(t, 1, res.Stats.FailedPoints)
}

func TestSearchCancelledReturnsPartialResult(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	fetcher := &fakeFetcher{respond: func(call int, p geo.Coordinate) ([]observation.Observation, error) {
		cancel()
		return []observation.Observation{sighting("bluja", "Blue Jay", "S1", p.Lat, p.Lng, "2024-01-01")}, nil
	}}
	rec := newCountingRecorder()
	svc := newTestService(t, Dependencies{Observations: fetcher, Recorder: rec})

	res, err := svc.Search(ctx, Request{
		Mode: ModeBox,
		Box:  &geo.BoundingBox{South: 40, West: -78, North: 42, East: -76},
	}, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.UniqueSightings, 1)
	assert.Len(t, fetcher.calls, 1)
	assert.Equal(t, 1, rec.ops[metrics.OpSearch+"/"+metrics.StatusCancelled])
}

func TestSearchRegionCancelledReturnsPartialResult(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	rec := newCountingRecorder()
	svc := newTestService(t, Dependencies{
		Observations: &fakeFetcher{},
		Regions:      &fakeRegion{err: context.Canceled},
		Recorder:     rec,
	})

	res, err := svc.Search(ctx, Request{Mode: ModeRegion, Region: "US-NY"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	require.NotNil(t, res)
	assert.Equal(t, ModeRegion, res.Mode)
	assert.Empty(t, res.UniqueSightings)
	assert.Equal(t, 0, res.Stats.FailedPoints)
	assert.Equal(t, 1, rec.ops[metrics.OpSearch+"/"+metrics.StatusCancelled])
}

func TestSearchUsesCompositeKeyForWideArea(t *testing.T) {
	t.Parallel()

	// The same species at the same spot at two times is two sightings in a
	// box search but one in a point search.
	respond := func(int, geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{
			sighting("bluja", "Blue Jay", "S1", 1, 1, "2024-01-01"),
			sighting("bluja", "Blue Jay", "S2", 1, 1, "2024-01-05"),
		}, nil
	}

	svc := newTestService(t, Dependencies{Observations: &fakeFetcher{respond: respond}}, func(c *Config) {
		c.Planner = planner.Options{SpacingKm: 1000, MaxPoints: 1}
	})
	box, err := svc.Search(t.Context(), Request{Mode: ModeBox, Box: &geo.BoundingBox{South: 0, West: 0, North: 1, East: 1}}, nil)
	require.NoError(t, err)
	assert.Len(t, box.UniqueSightings, 2)

	point, err := svc.Search(t.Context(), Request{Mode: ModePoint, Point: &geo.Coordinate{Lat: 1, Lng: 1}}, nil)
	require.NoError(t, err)
	assert.Len(t, point.UniqueSightings, 1)
}

func TestClampRadiusAndLookback(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, Dependencies{Observations: &fakeFetcher{}})
	assert.InDelta(t, DefaultRadiusKm, svc.ClampRadius(0), 1e-9)
	assert.InDelta(t, 25.0, svc.ClampRadius(25), 1e-9)
	assert.InDelta(t, MaxRadiusKm, svc.ClampRadius(500), 1e-9)
	assert.Equal(t, DefaultLookbackDays, svc.ClampLookback(-3))
	assert.Equal(t, 7, svc.ClampLookback(7))
	assert.Equal(t, MaxLookbackDays, svc.ClampLookback(90))
}

func BenchmarkSearchBox(b *testing.B) {
	fetcher := &fakeFetcher{respond: func(call int, p geo.Coordinate) ([]observation.Observation, error) {
		return []observation.Observation{
			sighting("bluja", "Blue Jay", fmt.Sprintf("S%d", call), p.Lat, p.Lng, "2024-01-01"),
			sighting("amerob", "American Robin", fmt.Sprintf("S%d", call), p.Lat, p.Lng, "2024-01-02"),
		}, nil
	}}
	svc, err := NewService(DefaultConfig(), Dependencies{Observations: fetcher})
	require.NoError(b, err)
	req := Request{Mode: ModeBox, Box: &geo.BoundingBox{South: 40, West: -80, North: 44, East: -74}}

	for b.Loop() {
		fetcher.calls = fetcher.calls[:0]
		fetcher.radius = fetcher.radius[:0]
		fetcher.backDays = fetcher.backDays[:0]
		if _, err := svc.Search(b.Context(), req, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func TestEncodeDecodeRequest(t *testing.T) {
	t.Parallel()

	req := Request{Mode: ModePoint, Point: &geo.Coordinate{Lat: 40.5, Lng: -74.2}, RadiusKm: 10, ListMode: "life"}
	raw, err := EncodeRequest(req)
	require.NoError(t, err)
	assert.Contains(t, raw, `"mode":"point"`)

	decoded, err := DecodeRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)

	_, err = EncodeRequest(Request{Mode: ModeBox})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = DecodeRequest("{not json")
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))

	_, err = DecodeRequest(`{"mode":"route"}`)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
