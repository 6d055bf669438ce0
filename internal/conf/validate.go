// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. The eBird API key
// is not required here; commands that call eBird check it themselves.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, check := range []func(*Settings) error{
		func(s *Settings) error { return validateEBirdSettings(&s.EBird) },
		func(s *Settings) error { return validateSearchSettings(&s.Search) },
		func(s *Settings) error { return validateTargetSettings(&s.Targets) },
		func(s *Settings) error { return validateRoutingSettings(&s.Routing) },
		func(s *Settings) error { return validateDatastoreSettings(&s.Datastore) },
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateSentrySettings(&s.Sentry) },
	} {
		if err := check(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// joinErrs folds a section's problems into one error.
func joinErrs(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s settings errors: %s", section, strings.Join(errs, ", "))
}

func validateEBirdSettings(settings *EBirdSettings) error {
	var errs []string

	if _, err := url.ParseRequestURI(settings.BaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid base URL %q", settings.BaseURL))
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if settings.CacheTTL < 0 || settings.ReferenceCacheTTL < 0 {
		errs = append(errs, "cache TTL must not be negative")
	}
	if settings.RateLimitMS < 0 {
		errs = append(errs, "rate limit must not be negative")
	}

	return joinErrs("eBird", errs)
}

// minSpacingMiles keeps a box grid from growing without bound.
const minSpacingMiles = 1.0

func validateSearchSettings(settings *SearchSettings) error {
	var errs []string

	if settings.MaxRadiusKm <= 0 || settings.MaxRadiusKm > 50 {
		errs = append(errs, "max radius must be between 0 and 50 km")
	}
	if settings.RadiusKm <= 0 || settings.RadiusKm > settings.MaxRadiusKm {
		errs = append(errs, "radius must be positive and at most the max radius")
	}
	if settings.MaxLookbackDays < 1 || settings.MaxLookbackDays > 30 {
		errs = append(errs, "max lookback must be between 1 and 30 days")
	}
	if settings.LookbackDays < 1 || settings.LookbackDays > settings.MaxLookbackDays {
		errs = append(errs, "lookback must be between 1 day and the max lookback")
	}
	if settings.SpacingMiles < minSpacingMiles {
		errs = append(errs, fmt.Sprintf("sample point spacing must be at least %g miles", minSpacingMiles))
	}
	if settings.MaxPoints < 0 {
		errs = append(errs, "max points must not be negative")
	}
	if settings.TopN < 0 {
		errs = append(errs, "topN must not be negative")
	}
	if err := validateEnvListMode(settings.ListMode); err != nil {
		errs = append(errs, fmt.Sprintf("list mode %s", err))
	}
	if strings.ContainsAny(settings.ReferenceRegion, "/?# ") {
		errs = append(errs, fmt.Sprintf("invalid reference region %q", settings.ReferenceRegion))
	}
	s := settings.Strides
	if s.SnapshotPoint < 0 || s.SnapshotBox < 0 || s.SnapshotPath < 0 ||
		s.HotspotPoint < 0 || s.HotspotBox < 0 || s.HotspotPath < 0 {
		errs = append(errs, "strides must not be negative")
	}

	return joinErrs("Search", errs)
}

func validateTargetSettings(settings *TargetSettings) error {
	if settings.Notable < 0 || settings.Uncommon < settings.Notable || settings.Expected < settings.Uncommon {
		return fmt.Errorf("Targets settings errors: thresholds must satisfy expected >= uncommon >= notable >= 0")
	}
	if settings.Expected > 100 {
		return fmt.Errorf("Targets settings errors: expected threshold must be at most 100")
	}
	return nil
}

func validateRoutingSettings(settings *RoutingSettings) error {
	var errs []string

	if err := validateEnvRoutingProvider(settings.Provider); err != nil {
		errs = append(errs, fmt.Sprintf("provider %s", err))
	}
	if strings.EqualFold(settings.Provider, "osrm") {
		if _, err := url.ParseRequestURI(settings.BaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid OSRM base URL %q", settings.BaseURL))
		}
		if settings.Profile == "" {
			errs = append(errs, "OSRM profile is required")
		}
	}
	if settings.StepKm < 0 {
		errs = append(errs, "step must not be negative")
	}

	return joinErrs("Routing", errs)
}

func validateDatastoreSettings(settings *DatastoreSettings) error {
	var errs []string

	switch strings.ToLower(settings.Type) {
	case "sqlite":
		if settings.SQLite.Path == "" {
			errs = append(errs, "SQLite path is required")
		}
	case "mysql":
		if settings.MySQL.Host == "" || settings.MySQL.Port == "" || settings.MySQL.Database == "" {
			errs = append(errs, "MySQL host, port and database are required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported type %q", settings.Type))
	}

	return joinErrs("Datastore", errs)
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
		return fmt.Errorf("WebServer settings errors: invalid listen address %q", settings.Listen)
	}
	return nil
}

func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return fmt.Errorf("Sentry settings errors: DSN is required when enabled")
	}
	return nil
}
