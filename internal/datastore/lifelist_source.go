package datastore

import (
	"context"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/targets"
)

// LifeListSource serves reference species sets from the stored life list.
// Year and month sets are derived from last-seen dates on every call.
type LifeListSource struct {
	store Interface
	now   func() time.Time
}

// NewLifeListSource wraps store as a targets.ReferenceSource.
func NewLifeListSource(store Interface) *LifeListSource {
	return &LifeListSource{store: store, now: time.Now}
}

// ReferenceSet implements targets.ReferenceSource.
func (s *LifeListSource) ReferenceSet(ctx context.Context, mode targets.ListMode) (targets.SpeciesSet, error) {
	if mode == targets.ModeAll {
		return targets.NewSpeciesSet(), nil
	}

	entries, err := s.store.LifeList(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryReferences).
			Context("mode", string(mode)).
			Build()
	}

	return targets.BuildReferenceLists(ToTargetEntries(entries), s.now()).ForMode(mode)
}

// ToTargetEntries converts stored entries to classifier entries.
func ToTargetEntries(entries []LifeListEntry) []targets.Entry {
	out := make([]targets.Entry, 0, len(entries))
	for i := range entries {
		e := targets.Entry{CommonName: entries[i].CommonName}
		if entries[i].LastSeen != nil {
			e.LastSeen = *entries[i].LastSeen
		}
		out = append(out, e)
	}
	return out
}

// FromTargetEntries converts imported entries to stored entries.
func FromTargetEntries(entries []targets.Entry) []LifeListEntry {
	out := make([]LifeListEntry, 0, len(entries))
	for i := range entries {
		e := LifeListEntry{CommonName: entries[i].CommonName}
		if !entries[i].LastSeen.IsZero() {
			seen := entries[i].LastSeen.UTC()
			e.LastSeen = &seen
		}
		out = append(out, e)
	}
	return out
}
