// Package app wires settings into the collaborators the commands and the
// HTTP server share.
package app

import (
	"context"
	"time"

	"github.com/tphakala/birdscout/internal/buildinfo"
	"github.com/tphakala/birdscout/internal/conf"
	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/ebird"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability"
	"github.com/tphakala/birdscout/internal/regions"
	"github.com/tphakala/birdscout/internal/routing"
	"github.com/tphakala/birdscout/internal/search"
	"github.com/tphakala/birdscout/internal/targets"
)

// SkipInitAnnotation marks commands that run without loading settings.
const SkipInitAnnotation = "birdscout/skip-init"

// Context is shared by all commands. Settings is filled in once the root
// command has loaded the configuration.
type Context struct {
	Settings *conf.Settings
	Build    *buildinfo.Context
}

// Options selects optional collaborators.
type Options struct {
	// OpenStore opens the datastore and uses the stored life list as the
	// reference source for list modes. A configured reference region takes
	// precedence over the life list.
	OpenStore bool
	// EBirdOptions are passed to the eBird client, e.g. a test HTTP client.
	EBirdOptions []ebird.Option
}

// Runtime holds the wired collaborators. Close releases them.
type Runtime struct {
	Metrics *observability.Metrics
	EBird   *ebird.Client
	Router  routing.Router
	Store   *datastore.DataStore
	Service *search.Service
	Regions *regions.Service
}

// Build wires a Runtime from settings.
func Build(settings *conf.Settings, opts Options) (*Runtime, error) {
	if settings == nil {
		return nil, errors.Newf("settings are not loaded").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "metrics_init").
			Build()
	}
	rt := &Runtime{Metrics: m}

	ebirdOpts := append([]ebird.Option{ebird.WithMetricsRecorder(m.EBird)}, opts.EBirdOptions...)
	rt.EBird, err = ebird.NewClient(settings.EBirdConfig(), ebirdOpts...)
	if err != nil {
		return nil, err
	}

	rt.Router, err = routing.New(settings.RoutingConfig())
	if err != nil {
		rt.Close()
		return nil, err
	}

	var references targets.ReferenceSource
	if opts.OpenStore {
		rt.Store, err = datastore.Open(settings.DatastoreConfig())
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Store.SetMetrics(m.Datastore)
		references = datastore.NewLifeListSource(rt.Store)
	}
	if region := settings.Search.ReferenceRegion; region != "" {
		references = targets.NewRegionReference(rt.EBird, region)
	}

	rt.Service, err = search.NewService(settings.SearchConfig(), search.Dependencies{
		Observations: rt.EBird,
		Hotspots:     rt.EBird,
		Regions:      rt.EBird,
		Router:       rt.Router,
		References:   references,
		Recorder:     m.Search,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Regions, err = regions.NewService(rt.EBird, m.Search)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the eBird cache and the datastore.
func (r *Runtime) Close() {
	if r.EBird != nil {
		r.EBird.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			logger.Global().Module("app").Warn("failed to close datastore", logger.Error(err))
		}
	}
}

// NewSavedSearch builds a storable saved search from a request.
func NewSavedSearch(name, notes string, req search.Request) (*datastore.SavedSearch, error) {
	raw, err := search.EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	return &datastore.SavedSearch{
		Name:         name,
		Notes:        notes,
		Mode:         string(req.Mode),
		Request:      raw,
		RadiusKm:     req.RadiusKm,
		LookbackDays: req.LookbackDays,
	}, nil
}

// SaveSearch stores req under name and records a run with resultCount
// unique sightings.
func (r *Runtime) SaveSearch(ctx context.Context, name, notes string, req search.Request, resultCount int) (*datastore.SavedSearch, error) {
	if r.Store == nil {
		return nil, errors.Newf("datastore is not open").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	saved, err := NewSavedSearch(name, notes, req)
	if err != nil {
		return nil, err
	}
	if err := r.Store.SaveSearch(ctx, saved); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := r.Store.MarkSearchRun(ctx, saved.ID, resultCount, now); err != nil {
		return nil, err
	}
	saved.ResultCount = resultCount
	saved.LastRunAt = &now
	return saved, nil
}

// SetupLogging installs the global logger described by cfg.
func SetupLogging(cfg logger.LoggingConfig, debug bool) error {
	if debug {
		cfg.DefaultLevel = string(logger.LogLevelDebug)
	}
	central, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "logger_init").
			Build()
	}
	logger.SetGlobal(central)
	return nil
}
