// env.go - Environment variable configuration and validation for birdscout
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BIRDSCOUT_EBIRD_APIKEY.
const EnvPrefix = "BIRDSCOUT"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the explicitly validated environment bindings.
// Every other key is still reachable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"ebird.apikey", "BIRDSCOUT_EBIRD_APIKEY", nil},
		{"ebird.apikeyfile", "BIRDSCOUT_EBIRD_APIKEYFILE", nil},
		{"ebird.timeout", "BIRDSCOUT_EBIRD_TIMEOUT", validateEnvDuration},
		{"ebird.ratelimitms", "BIRDSCOUT_EBIRD_RATELIMITMS", validateEnvNonNegativeInt},

		{"search.radiuskm", "BIRDSCOUT_SEARCH_RADIUSKM", validateEnvPositiveFloat},
		{"search.lookbackdays", "BIRDSCOUT_SEARCH_LOOKBACKDAYS", validateEnvNonNegativeInt},
		{"search.maxpoints", "BIRDSCOUT_SEARCH_MAXPOINTS", validateEnvNonNegativeInt},
		{"search.listmode", "BIRDSCOUT_SEARCH_LISTMODE", validateEnvListMode},
		{"search.referenceregion", "BIRDSCOUT_SEARCH_REFERENCEREGION", nil},

		{"routing.provider", "BIRDSCOUT_ROUTING_PROVIDER", validateEnvRoutingProvider},

		{"datastore.type", "BIRDSCOUT_DATASTORE_TYPE", validateEnvDatastoreType},
		{"datastore.sqlite.path", "BIRDSCOUT_DATASTORE_SQLITE_PATH", nil},
		{"datastore.mysql.password", "BIRDSCOUT_DATASTORE_MYSQL_PASSWORD", nil},
		{"datastore.mysql.passwordfile", "BIRDSCOUT_DATASTORE_MYSQL_PASSWORDFILE", nil},

		{"webserver.listen", "BIRDSCOUT_WEBSERVER_LISTEN", nil},
		{"sentry.enabled", "BIRDSCOUT_SENTRY_ENABLED", validateEnvBool},
		{"debug", "BIRDSCOUT_DEBUG", validateEnvBool},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("must be a duration such as 30s")
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateEnvListMode(value string) error {
	switch strings.ToLower(value) {
	case "all", "life", "year", "month":
		return nil
	}
	return fmt.Errorf("must be one of all, life, year, month")
}

func validateEnvRoutingProvider(value string) error {
	switch strings.ToLower(value) {
	case "osrm", "straight":
		return nil
	}
	return fmt.Errorf("must be osrm or straight")
}

func validateEnvDatastoreType(value string) error {
	switch strings.ToLower(value) {
	case "sqlite", "mysql":
		return nil
	}
	return fmt.Errorf("must be sqlite or mysql")
}

// configureEnvironmentVariables enables BIRDSCOUT_ prefixed overrides for
// every key and validates the well-known ones.
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return bindEnvVars(v)
}
