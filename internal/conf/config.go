// config.go: settings structure and loading
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/secrets"
)

// EBirdSettings contains settings for the eBird API client
type EBirdSettings struct {
	APIKey            string        `yaml:"apikey"`            // eBird API token, may reference ${ENV}
	APIKeyFile        string        `yaml:"apikeyfile"`        // file holding the token, wins over apikey
	BaseURL           string        `yaml:"baseurl"`           // API root, override for testing
	Timeout           time.Duration `yaml:"timeout"`           // per request timeout
	CacheTTL          time.Duration `yaml:"cachettl"`          // observation cache lifetime
	ReferenceCacheTTL time.Duration `yaml:"referencecachettl"` // hotspot, species list and leaderboard cache lifetime
	RateLimitMS       int           `yaml:"ratelimitms"`       // minimum milliseconds between requests
	Debug             bool          `yaml:"debug"`             // log request details
}

// StrideSettings control snapshot and hotspot cadence per search shape
type StrideSettings struct {
	SnapshotPoint int `yaml:"snapshotpoint"`
	SnapshotBox   int `yaml:"snapshotbox"`
	SnapshotPath  int `yaml:"snapshotpath"`
	HotspotPoint  int `yaml:"hotspotpoint"`
	HotspotBox    int `yaml:"hotspotbox"`
	HotspotPath   int `yaml:"hotspotpath"`
}

// SearchSettings contains search defaults and limits
type SearchSettings struct {
	RadiusKm         float64        `yaml:"radiuskm"`         // default radius around each sample point
	MaxRadiusKm      float64        `yaml:"maxradiuskm"`      // eBird geo endpoints accept at most 50 km
	LookbackDays     int            `yaml:"lookbackdays"`     // default lookback window
	MaxLookbackDays  int            `yaml:"maxlookbackdays"`  // eBird accepts at most 30 days
	SpacingMiles     float64        `yaml:"spacingmiles"`     // distance between sample points
	MaxPoints        int            `yaml:"maxpoints"`        // cap on sample points per search, 0 disables
	TopN             int            `yaml:"topn"`             // ranked checklists and hotspots
	ListMode         string         `yaml:"listmode"`         // all, life, year or month
	RegionMaxResults int            `yaml:"regionmaxresults"` // maxResults for region searches
	ReferenceRegion  string         `yaml:"referenceregion"`  // use this region's species list instead of the life list
	Strides          StrideSettings `yaml:"strides"`
}

// TargetSettings contains frequency tier thresholds in percent
type TargetSettings struct {
	Expected float64 `yaml:"expected"`
	Uncommon float64 `yaml:"uncommon"`
	Notable  float64 `yaml:"notable"`
}

// RoutingSettings contains settings for the route service
type RoutingSettings struct {
	Provider string        `yaml:"provider"` // osrm or straight
	BaseURL  string        `yaml:"baseurl"`  // OSRM server
	Profile  string        `yaml:"profile"`  // OSRM profile, e.g. driving
	Timeout  time.Duration `yaml:"timeout"`
	StepKm   float64       `yaml:"stepkm"` // straight-line densification step
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Path string `yaml:"path"` // database file, ":memory:" for a throwaway store
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"passwordfile"`
	Database     string `yaml:"database"`
}

// DatastoreSettings selects the life list and saved search backend
type DatastoreSettings struct {
	Type               string         `yaml:"type"` // sqlite or mysql
	SQLite             SQLiteSettings `yaml:"sqlite"`
	MySQL              MySQLSettings  `yaml:"mysql"`
	SlowQueryThreshold time.Duration  `yaml:"slowquerythreshold"`
}

// WebServerSettings contains settings for the HTTP API
type WebServerSettings struct {
	Enabled         bool          `yaml:"enabled"`
	Listen          string        `yaml:"listen"`          // address:port
	Metrics         bool          `yaml:"metrics"`         // expose /metrics
	ShutdownTimeout time.Duration `yaml:"shutdowntimeout"` // graceful shutdown budget
}

// SentrySettings contains opt-in error telemetry settings
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

// Settings contains all configuration options for birdscout
type Settings struct {
	Debug     bool                 `yaml:"debug"`
	EBird     EBirdSettings        `yaml:"ebird"`
	Search    SearchSettings       `yaml:"search"`
	Targets   TargetSettings       `yaml:"targets"`
	Routing   RoutingSettings      `yaml:"routing"`
	Datastore DatastoreSettings    `yaml:"datastore"`
	WebServer WebServerSettings    `yaml:"webserver"`
	Logging   logger.LoggingConfig `yaml:"logging"`
	Sentry    SentrySettings       `yaml:"sentry"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables using the
// global viper instance, so flags bound with viper.BindPFlags take effect.
// An empty configFile searches the default paths.
func Load(configFile string) (*Settings, error) {
	settings, err := LoadFrom(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

// LoadFrom reads settings into v. An empty configFile searches the default
// paths; a missing config file is not an error and defaults apply.
func LoadFrom(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("operation", "validate").
			Build()
	}

	return settings, nil
}

// resolveSecrets replaces credential settings with their file or
// environment backed values.
func resolveSecrets(settings *Settings) error {
	var err error
	if settings.EBird.APIKey, err = secrets.Resolve(settings.EBird.APIKeyFile, settings.EBird.APIKey); err != nil {
		return err
	}
	mysql := &settings.Datastore.MySQL
	if mysql.Password, err = secrets.Resolve(mysql.PasswordFile, mysql.Password); err != nil {
		return err
	}
	if settings.Sentry.DSN, err = secrets.Expand(settings.Sentry.DSN); err != nil {
		return err
	}
	return nil
}

// initViper sets defaults, binds the environment and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		// Bad environment values are reported, not fatal; validation catches the rest
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return err
		}
		for _, path := range configPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_config").
			Context("file", configFile).
			Build()
	}

	GetLogger().Debug("config file loaded", logger.String("path", v.ConfigFileUsed()))
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// DefaultSettings returns the settings produced by defaults alone.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	// Defaults always decode
	_ = v.Unmarshal(settings)
	return settings
}

// WriteDefaultConfig writes the default settings to path unless a file
// already exists there.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file %s already exists", path).
			Component("conf").
			Category(errors.CategoryConflict).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return SaveYAMLConfig(path, DefaultSettings())
}

// SaveYAMLConfig writes settings to configPath. It overwrites the existing
// file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first so a failed write never truncates the config
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return fmt.Errorf("error moving temporary file: %w", err)
	}
	return nil
}
