package conf

import (
	"strings"

	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/ebird"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/planner"
	"github.com/tphakala/birdscout/internal/routing"
	"github.com/tphakala/birdscout/internal/search"
	"github.com/tphakala/birdscout/internal/targets"
)

// EBirdConfig returns the eBird client configuration.
func (s *Settings) EBirdConfig() ebird.Config {
	return ebird.Config{
		APIKey:            s.EBird.APIKey,
		BaseURL:           s.EBird.BaseURL,
		Timeout:           s.EBird.Timeout,
		CacheTTL:          s.EBird.CacheTTL,
		ReferenceCacheTTL: s.EBird.ReferenceCacheTTL,
		RateLimitMS:       s.EBird.RateLimitMS,
		Debug:             s.EBird.Debug || s.Debug,
	}
}

// SearchConfig returns the search pipeline configuration.
func (s *Settings) SearchConfig() search.Config {
	return search.Config{
		Planner: planner.Options{
			SpacingKm: geo.MilesToKm(s.Search.SpacingMiles),
			MaxPoints: s.Search.MaxPoints,
		},
		DefaultRadiusKm:     s.Search.RadiusKm,
		MaxRadiusKm:         s.Search.MaxRadiusKm,
		DefaultLookbackDays: s.Search.LookbackDays,
		MaxLookbackDays:     s.Search.MaxLookbackDays,
		TopN:                s.Search.TopN,
		DefaultListMode:     targets.ListMode(strings.ToLower(s.Search.ListMode)),
		Thresholds: targets.Thresholds{
			Expected: s.Targets.Expected,
			Uncommon: s.Targets.Uncommon,
			Notable:  s.Targets.Notable,
		},
		Strides: search.Strides{
			SnapshotPoint: s.Search.Strides.SnapshotPoint,
			SnapshotBox:   s.Search.Strides.SnapshotBox,
			SnapshotPath:  s.Search.Strides.SnapshotPath,
			HotspotPoint:  s.Search.Strides.HotspotPoint,
			HotspotBox:    s.Search.Strides.HotspotBox,
			HotspotPath:   s.Search.Strides.HotspotPath,
		},
		RegionMaxResults: s.Search.RegionMaxResults,
	}
}

// RoutingConfig returns the route service configuration.
func (s *Settings) RoutingConfig() routing.Config {
	return routing.Config{
		Provider: strings.ToLower(s.Routing.Provider),
		OSRM: routing.OSRMConfig{
			BaseURL: s.Routing.BaseURL,
			Profile: s.Routing.Profile,
			Timeout: s.Routing.Timeout,
		},
		StepKm: s.Routing.StepKm,
	}
}

// DatastoreConfig returns the database configuration.
func (s *Settings) DatastoreConfig() datastore.Config {
	return datastore.Config{
		Type:   strings.ToLower(s.Datastore.Type),
		SQLite: datastore.SQLiteConfig{Path: s.Datastore.SQLite.Path},
		MySQL: datastore.MySQLConfig{
			Host:     s.Datastore.MySQL.Host,
			Port:     s.Datastore.MySQL.Port,
			Username: s.Datastore.MySQL.Username,
			Password: s.Datastore.MySQL.Password,
			Database: s.Datastore.MySQL.Database,
		},
		SlowQueryThreshold: s.Datastore.SlowQueryThreshold,
	}
}
