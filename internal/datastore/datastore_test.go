package datastore

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/targets"
)

// setupTestDB opens a private in-memory SQLite store
func setupTestDB(t *testing.T) *DataStore {
	t.Helper()

	ds, err := Open(Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: MemoryPath}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestOpenRejectsBadConfig(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Type: "postgres"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = Open(Config{Type: TypeSQLite})
	require.Error(t, err)

	_, err = Open(Config{Type: TypeMySQL, MySQL: MySQLConfig{Host: "db", Port: "3306"}})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestOpenCreatesSQLiteFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/nested/birdscout.db"
	ds, err := Open(Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: path}})
	require.NoError(t, err)
	require.NoError(t, ds.Close())
	assert.FileExists(t, path)
}

func TestReplaceLifeList(t *testing.T) {
	t.Parallel()

	ds := setupTestDB(t)
	registry := prometheus.NewRegistry()
	m, err := metrics.NewDatastoreMetrics(registry)
	require.NoError(t, err)
	ds.SetMetrics(m)
	ctx := t.Context()

	err = ds.ReplaceLifeList(ctx, []LifeListEntry{
		{CommonName: "Blue Jay", LastSeen: date(2026, 1, 4)},
		{CommonName: "  American Robin "},
		{CommonName: "blue jay", LastSeen: date(2026, 3, 9)},
		{CommonName: "   "},
	})
	require.NoError(t, err)

	entries, err := ds.LifeList(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "American Robin", entries[0].CommonName)
	assert.Nil(t, entries[0].LastSeen)
	assert.Equal(t, "Blue Jay", entries[1].CommonName)
	require.NotNil(t, entries[1].LastSeen)
	assert.True(t, entries[1].LastSeen.Equal(*date(2026, 3, 9)))

	// A second import replaces rather than appends
	require.NoError(t, ds.ReplaceLifeList(ctx, []LifeListEntry{{CommonName: "Osprey"}}))
	entries, err = ds.LifeList(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Osprey", entries[0].CommonName)

	require.NoError(t, ds.ReplaceLifeList(ctx, nil))
	entries, err = ds.LifeList(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, 1, testutil.CollectAndCount(registry, "datastore_life_list_entries"))
}

func TestSavedSearchLifecycle(t *testing.T) {
	t.Parallel()

	ds := setupTestDB(t)
	ctx := t.Context()

	s := &SavedSearch{
		Name:         " Finger Lakes loop ",
		Mode:         "route",
		Request:      `{"mode":"route"}`,
		RadiusKm:     15,
		LookbackDays: 14,
	}
	require.NoError(t, ds.SaveSearch(ctx, s))
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "Finger Lakes loop", s.Name)

	got, err := ds.GetSavedSearch(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "route", got.Mode)
	assert.Equal(t, `{"mode":"route"}`, got.Request)
	assert.Nil(t, got.LastRunAt)

	// Upsert by id
	s.Notes = "spring migration"
	require.NoError(t, ds.SaveSearch(ctx, s))
	list, err := ds.SavedSearches(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "spring migration", list[0].Notes)

	runAt := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
	require.NoError(t, ds.MarkSearchRun(ctx, s.ID, 42, runAt))
	got, err = ds.GetSavedSearch(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.ResultCount)
	require.NotNil(t, got.LastRunAt)
	assert.True(t, got.LastRunAt.Equal(runAt))

	require.NoError(t, ds.DeleteSavedSearch(ctx, s.ID))
	_, err = ds.GetSavedSearch(ctx, s.ID)
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(ds.DeleteSavedSearch(ctx, s.ID)))
	assert.True(t, errors.IsNotFound(ds.MarkSearchRun(ctx, s.ID, 1, runAt)))
}

func TestSaveSearchValidation(t *testing.T) {
	t.Parallel()

	ds := setupTestDB(t)
	ctx := t.Context()

	err := ds.SaveSearch(ctx, &SavedSearch{Request: "{}"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	err = ds.SaveSearch(ctx, &SavedSearch{Name: "x"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	err = ds.SaveSearch(ctx, &SavedSearch{ID: "not-a-uuid", Name: "x", Request: "{}"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestLifeListSource(t *testing.T) {
	t.Parallel()

	ds := setupTestDB(t)
	ctx := t.Context()
	require.NoError(t, ds.ReplaceLifeList(ctx, []LifeListEntry{
		{CommonName: "Blue Jay", LastSeen: date(2026, 5, 1)},
		{CommonName: "Osprey", LastSeen: date(2026, 2, 11)},
		{CommonName: "Snow Bunting", LastSeen: date(2024, 12, 30)},
		{CommonName: "Common Loon"},
	}))

	src := NewLifeListSource(ds)
	src.now = func() time.Time { return time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC) }

	life, err := src.ReferenceSet(ctx, targets.ModeLife)
	require.NoError(t, err)
	assert.Equal(t, 4, life.Len())

	year, err := src.ReferenceSet(ctx, targets.ModeYear)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"blue jay", "osprey"}, year.Names())

	month, err := src.ReferenceSet(ctx, targets.ModeMonth)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"blue jay"}, month.Names())

	all, err := src.ReferenceSet(ctx, targets.ModeAll)
	require.NoError(t, err)
	assert.Zero(t, all.Len())

	_, err = src.ReferenceSet(ctx, targets.ListMode("decade"))
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestEntryConversionRoundTrip(t *testing.T) {
	t.Parallel()

	in := []targets.Entry{
		{CommonName: "Blue Jay", LastSeen: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{CommonName: "Osprey"},
	}
	stored := FromTargetEntries(in)
	require.Len(t, stored, 2)
	assert.Nil(t, stored[1].LastSeen)
	assert.Equal(t, in, ToTargetEntries(stored))
}
