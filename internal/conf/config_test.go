package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/routing"
	"github.com/tphakala/birdscout/internal/targets"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "https://api.ebird.org/v2", s.EBird.BaseURL)
	assert.Equal(t, 30*time.Second, s.EBird.Timeout)
	assert.Equal(t, 15*time.Minute, s.EBird.CacheTTL)
	assert.Equal(t, 24*time.Hour, s.EBird.ReferenceCacheTTL)
	assert.Equal(t, 24*time.Hour, s.EBirdConfig().ReferenceCacheTTL)
	assert.InDelta(t, 15.0, s.Search.RadiusKm, 1e-9)
	assert.InDelta(t, 50.0, s.Search.MaxRadiusKm, 1e-9)
	assert.Equal(t, 30, s.Search.LookbackDays)
	assert.Equal(t, 400, s.Search.MaxPoints)
	assert.Equal(t, 10, s.Search.TopN)
	assert.Equal(t, "all", s.Search.ListMode)
	assert.Equal(t, 5, s.Search.Strides.SnapshotBox)
	assert.Equal(t, 2, s.Search.Strides.HotspotPath)
	assert.InDelta(t, 30.0, s.Targets.Expected, 1e-9)
	assert.Equal(t, "osrm", s.Routing.Provider)
	assert.Equal(t, "sqlite", s.Datastore.Type)
	require.NotNil(t, s.Logging.Console)
	assert.True(t, s.Logging.Console.Enabled)
	assert.False(t, s.Sentry.Enabled)

	require.NoError(t, ValidateSettings(s))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
ebird:
  apikey: abc123
  timeout: 5s
search:
  radiuskm: 25
  listmode: life
  strides:
    snapshotbox: 2
routing:
  provider: straight
datastore:
  sqlite:
    path: /tmp/birdscout-test.db
logging:
  defaultlevel: debug
`)

	s, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", s.EBird.APIKey)
	assert.Equal(t, 5*time.Second, s.EBird.Timeout)
	assert.InDelta(t, 25.0, s.Search.RadiusKm, 1e-9)
	assert.Equal(t, "life", s.Search.ListMode)
	assert.Equal(t, 2, s.Search.Strides.SnapshotBox)
	assert.Equal(t, 3, s.Search.Strides.SnapshotPath)
	assert.Equal(t, "straight", s.Routing.Provider)
	assert.Equal(t, "debug", s.Logging.DefaultLevel)
}

func TestLoadFromEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "ebird:\n  apikey: from-file\n")
	t.Setenv("BIRDSCOUT_EBIRD_APIKEY", "from-env")
	t.Setenv("BIRDSCOUT_SEARCH_MAXPOINTS", "50")

	s, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", s.EBird.APIKey)
	assert.Equal(t, 50, s.Search.MaxPoints)
}

func TestLoadFromResolvesSecrets(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "ebird-key")
	require.NoError(t, os.WriteFile(keyFile, []byte("key-from-file\n"), 0o600))
	t.Setenv("BIRDSCOUT_TEST_DB_PASSWORD", "db-secret")

	path := writeConfig(t, `
ebird:
  apikey: ignored
  apikeyfile: `+keyFile+`
datastore:
  mysql:
    password: ${BIRDSCOUT_TEST_DB_PASSWORD}
`)

	s, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "key-from-file", s.EBird.APIKey)
	assert.Equal(t, "db-secret", s.Datastore.MySQL.Password)

	missing := writeConfig(t, "ebird:\n  apikey: ${BIRDSCOUT_TEST_UNSET_KEY}\n")
	_, err = LoadFrom(viper.New(), missing)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadFromRejectsInvalidSettings(t *testing.T) {
	path := writeConfig(t, `
search:
  radiuskm: 80
  listmode: decade
datastore:
  type: postgres
`)

	_, err := LoadFrom(viper.New(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := writeConfig(t, "ebird: [unclosed\n")

	_, err := LoadFrom(viper.New(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid defaults", func(*Settings) {}, ""},
		{"lookback too long", func(s *Settings) { s.Search.LookbackDays = 45 }, "lookback"},
		{"thresholds out of order", func(s *Settings) { s.Targets.Notable = 50 }, "thresholds"},
		{"unknown router", func(s *Settings) { s.Routing.Provider = "valhalla" }, "provider"},
		{"osrm without profile", func(s *Settings) { s.Routing.Profile = "" }, "profile"},
		{"mysql without host", func(s *Settings) { s.Datastore.Type = "mysql"; s.Datastore.MySQL.Host = "" }, "MySQL"},
		{"bad listen address", func(s *Settings) { s.WebServer.Listen = "8080" }, "listen"},
		{"disabled server ignores listen", func(s *Settings) { s.WebServer.Enabled = false; s.WebServer.Listen = "" }, ""},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "DSN"},
		{"spacing too small", func(s *Settings) { s.Search.SpacingMiles = 0.1 }, "spacing"},
		{"negative stride", func(s *Settings) { s.Search.Strides.HotspotBox = -1 }, "strides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBindEnvVarsReportsInvalidValues(t *testing.T) {
	t.Setenv("BIRDSCOUT_SEARCH_LISTMODE", "decade")
	t.Setenv("BIRDSCOUT_EBIRD_TIMEOUT", "soon")

	err := bindEnvVars(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BIRDSCOUT_SEARCH_LISTMODE")
	assert.Contains(t, err.Error(), "BIRDSCOUT_EBIRD_TIMEOUT")
}

func TestConversions(t *testing.T) {
	s := DefaultSettings()
	s.EBird.APIKey = "key"
	s.Search.ListMode = "YEAR"

	eb := s.EBirdConfig()
	assert.Equal(t, "key", eb.APIKey)
	assert.Equal(t, 100, eb.RateLimitMS)

	sc := s.SearchConfig()
	assert.InDelta(t, geo.MilesToKm(20), sc.Planner.SpacingKm, 1e-9)
	assert.Equal(t, targets.ModeYear, sc.DefaultListMode)
	assert.Equal(t, targets.DefaultThresholds(), sc.Thresholds)

	rc := s.RoutingConfig()
	assert.Equal(t, routing.ProviderOSRM, rc.Provider)
	assert.Equal(t, "driving", rc.OSRM.Profile)

	dc := s.DatastoreConfig()
	assert.Equal(t, "sqlite", dc.Type)
	assert.Equal(t, "birdscout.db", dc.SQLite.Path)
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	err := WriteDefaultConfig(path)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	s, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Search, s.Search)
	assert.Equal(t, DefaultSettings().Logging.DefaultLevel, s.Logging.DefaultLevel)
}
