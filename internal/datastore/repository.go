package datastore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
)

// observe records one operation outcome and its latency.
func (ds *DataStore) observe(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordDuration(operation, time.Since(start).Seconds())
	if err != nil {
		errType := string(errors.CategoryDatabase)
		var enhanced *errors.EnhancedError
		if errors.As(err, &enhanced) {
			errType = string(enhanced.Category)
		}
		ds.metrics.RecordOperation(operation, metrics.StatusError)
		ds.metrics.RecordError(operation, errType)
		return
	}
	ds.metrics.RecordOperation(operation, metrics.StatusSuccess)
}

// ReplaceLifeList implements Interface. Names are trimmed, blank names are
// skipped and duplicate names keep the most recent LastSeen.
func (ds *DataStore) ReplaceLifeList(ctx context.Context, entries []LifeListEntry) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpTransaction, start, err) }()

	merged := mergeEntries(entries)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	err = ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&LifeListEntry{}).Error; err != nil {
			return err
		}
		if len(merged) == 0 {
			return nil
		}
		return tx.CreateInBatches(merged, 200).Error
	})
	if err != nil {
		return dbError(err, "replace_life_list", errors.PriorityMedium, "entries", len(merged))
	}

	if ds.metrics != nil {
		ds.metrics.SetLifeListSize(len(merged))
	}
	ds.log.Info("life list replaced", logger.Int("entries", len(merged)))
	return nil
}

func mergeEntries(entries []LifeListEntry) []LifeListEntry {
	index := make(map[string]int, len(entries))
	merged := make([]LifeListEntry, 0, len(entries))

	for _, e := range entries {
		e.CommonName = strings.TrimSpace(e.CommonName)
		if e.CommonName == "" {
			continue
		}
		e.ID = 0
		key := strings.ToLower(e.CommonName)
		pos, seen := index[key]
		if !seen {
			index[key] = len(merged)
			merged = append(merged, e)
			continue
		}
		current := merged[pos].LastSeen
		if e.LastSeen != nil && (current == nil || e.LastSeen.After(*current)) {
			merged[pos].LastSeen = e.LastSeen
		}
	}
	return merged
}

// LifeList implements Interface.
func (ds *DataStore) LifeList(ctx context.Context) (entries []LifeListEntry, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbQuery, start, err) }()

	if err = ds.DB.WithContext(ctx).Order("common_name ASC").Find(&entries).Error; err != nil {
		return nil, dbError(err, "life_list", "")
	}
	return entries, nil
}

// SaveSearch implements Interface.
func (ds *DataStore) SaveSearch(ctx context.Context, s *SavedSearch) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbInsert, start, err) }()

	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return validationError("saved search name is required", "name", s.Name)
	}
	if s.Request == "" {
		return validationError("saved search request is required", "request", s.Request)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	} else if _, parseErr := uuid.Parse(s.ID); parseErr != nil {
		return validationError("saved search id must be a UUID", "id", s.ID)
	}

	err = ds.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "notes", "mode", "request", "radius_km", "lookback_days", "result_count", "updated_at"}),
	}).Create(s).Error
	if err != nil {
		return dbError(err, "save_search", "", "id", s.ID)
	}
	return nil
}

// SavedSearches implements Interface.
func (ds *DataStore) SavedSearches(ctx context.Context) (list []SavedSearch, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbQuery, start, err) }()

	if err = ds.DB.WithContext(ctx).Order("created_at DESC").Order("name ASC").Find(&list).Error; err != nil {
		return nil, dbError(err, "saved_searches", "")
	}
	return list, nil
}

// GetSavedSearch implements Interface.
func (ds *DataStore) GetSavedSearch(ctx context.Context, id string) (s *SavedSearch, err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbQuery, start, err) }()

	var found SavedSearch
	err = ds.DB.WithContext(ctx).Where("id = ?", id).First(&found).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = notFoundError("saved search", id)
		return nil, err
	case err != nil:
		return nil, dbError(err, "get_saved_search", "", "id", id)
	}
	return &found, nil
}

// DeleteSavedSearch implements Interface.
func (ds *DataStore) DeleteSavedSearch(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbDelete, start, err) }()

	result := ds.DB.WithContext(ctx).Where("id = ?", id).Delete(&SavedSearch{})
	if result.Error != nil {
		return dbError(result.Error, "delete_saved_search", "", "id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError("saved search", id)
	}
	return nil
}

// MarkSearchRun implements Interface.
func (ds *DataStore) MarkSearchRun(ctx context.Context, id string, resultCount int, at time.Time) (err error) {
	start := time.Now()
	defer func() { ds.observe(metrics.OpDbInsert, start, err) }()

	at = at.UTC()
	result := ds.DB.WithContext(ctx).Model(&SavedSearch{}).Where("id = ?", id).
		Updates(map[string]any{"result_count": resultCount, "last_run_at": &at})
	if result.Error != nil {
		return dbError(result.Error, "mark_search_run", "", "id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError("saved search", id)
	}
	return nil
}
