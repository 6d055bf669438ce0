package datastore

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
)

// Interface abstracts the storage backend.
type Interface interface {
	// ReplaceLifeList swaps the stored life list for entries in one transaction.
	ReplaceLifeList(ctx context.Context, entries []LifeListEntry) error
	// LifeList returns every entry ordered by common name.
	LifeList(ctx context.Context) ([]LifeListEntry, error)

	// SaveSearch inserts or updates a saved search. An empty ID is assigned.
	SaveSearch(ctx context.Context, s *SavedSearch) error
	// SavedSearches returns all saved searches, newest first.
	SavedSearches(ctx context.Context) ([]SavedSearch, error)
	// GetSavedSearch returns one saved search or a not-found error.
	GetSavedSearch(ctx context.Context, id string) (*SavedSearch, error)
	// DeleteSavedSearch removes one saved search or returns a not-found error.
	DeleteSavedSearch(ctx context.Context, id string) error
	// MarkSearchRun records the result count and time of a re-run.
	MarkSearchRun(ctx context.Context, id string, resultCount int, at time.Time) error

	Close() error
}

// DataStore implements Interface on top of GORM.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
	log     logger.Logger
	mu      sync.Mutex // serializes life list replacement
}

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the datastore package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("datastore")
	})
	return serviceLogger
}

// SetMetrics attaches Prometheus metrics. Nil disables recording.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}
