package targets

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
)

// ListMode selects which personal list defines a target.
type ListMode string

const (
	ModeAll   ListMode = "all"   // no filtering; the target subset is empty
	ModeLife  ListMode = "life"  // species never seen
	ModeYear  ListMode = "year"  // species not seen this calendar year
	ModeMonth ListMode = "month" // species not seen this calendar month
)

// ParseListMode validates a list mode name. An empty string means ModeAll.
func ParseListMode(s string) (ListMode, error) {
	switch mode := ListMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeLife, ModeYear, ModeMonth:
		return mode, nil
	default:
		return "", errors.Newf("unknown list mode %q", s).
			Component("targets").
			Category(errors.CategoryValidation).
			Context("operation", "parse_list_mode").
			Build()
	}
}

// SpeciesSet holds species names. Membership ignores case and surrounding space.
type SpeciesSet map[string]struct{}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewSpeciesSet returns a set containing names.
func NewSpeciesSet(names ...string) SpeciesSet {
	s := make(SpeciesSet, len(names))
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add inserts name. Blank names are ignored.
func (s SpeciesSet) Add(name string) {
	if key := normalizeName(name); key != "" {
		s[key] = struct{}{}
	}
}

// Contains reports whether name is in the set. A nil set is empty.
func (s SpeciesSet) Contains(name string) bool {
	_, ok := s[normalizeName(name)]
	return ok
}

// Len returns the number of species.
func (s SpeciesSet) Len() int {
	return len(s)
}

// Names returns the normalized members in sorted order.
func (s SpeciesSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Entry is one species on a personal list with the date it was last seen.
// A zero LastSeen means the date is unknown.
type Entry struct {
	CommonName string    `json:"comName" yaml:"comName"`
	LastSeen   time.Time `json:"lastSeen,omitzero" yaml:"lastSeen,omitempty"`
}

// ReferenceLists are the precomputed life, year and month lists.
type ReferenceLists struct {
	Life  SpeciesSet
	Year  SpeciesSet
	Month SpeciesSet
}

// BuildReferenceLists derives the three lists from last-seen dates relative
// to now. Every entry counts toward the life list. An entry counts toward the
// year list when last seen in now's year, and toward the month list when also
// in now's month. Duplicate names keep their most recent date.
func BuildReferenceLists(entries []Entry, now time.Time) *ReferenceLists {
	latest := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		key := normalizeName(e.CommonName)
		if key == "" {
			continue
		}
		if seen, ok := latest[key]; !ok || e.LastSeen.After(seen) {
			latest[key] = e.LastSeen
		}
	}

	lists := &ReferenceLists{
		Life:  make(SpeciesSet, len(latest)),
		Year:  make(SpeciesSet),
		Month: make(SpeciesSet),
	}

	year, month, _ := now.Date()
	for name, seen := range latest {
		lists.Life.Add(name)
		if seen.IsZero() {
			continue
		}
		seenYear, seenMonth, _ := seen.In(now.Location()).Date()
		if seenYear != year {
			continue
		}
		lists.Year.Add(name)
		if seenMonth == month {
			lists.Month.Add(name)
		}
	}

	return lists
}

// ForMode returns the reference set for mode. ModeAll returns an empty set.
// Unknown modes are rejected rather than mapped to another list.
func (r *ReferenceLists) ForMode(mode ListMode) (SpeciesSet, error) {
	switch mode {
	case ModeAll, "":
		return SpeciesSet{}, nil
	case ModeLife:
		return r.Life, nil
	case ModeYear:
		return r.Year, nil
	case ModeMonth:
		return r.Month, nil
	default:
		return nil, errors.Newf("unknown list mode %q", mode).
			Component("targets").
			Category(errors.CategoryValidation).
			Context("operation", "reference_set").
			Build()
	}
}

// ReferenceSet implements ReferenceSource.
func (r *ReferenceLists) ReferenceSet(_ context.Context, mode ListMode) (SpeciesSet, error) {
	return r.ForMode(mode)
}

// ReferenceSource supplies the personal list a search compares against.
type ReferenceSource interface {
	ReferenceSet(ctx context.Context, mode ListMode) (SpeciesSet, error)
}

// SpeciesLister returns the species codes reported in an eBird region.
type SpeciesLister interface {
	SpeciesList(ctx context.Context, region string) ([]string, error)
}

// RegionReference uses a region's species list as the reference for every
// list mode, so targets are species never reported in that region. The list
// carries no dates, so life, year and month resolve to the same set.
type RegionReference struct {
	lister SpeciesLister
	region string
}

// NewRegionReference returns a reference source backed by region's species list.
func NewRegionReference(lister SpeciesLister, region string) *RegionReference {
	return &RegionReference{lister: lister, region: strings.ToUpper(strings.TrimSpace(region))}
}

// Region returns the region code the list is fetched for.
func (r *RegionReference) Region() string {
	return r.region
}

// ReferenceSet implements ReferenceSource.
func (r *RegionReference) ReferenceSet(ctx context.Context, mode ListMode) (SpeciesSet, error) {
	switch mode {
	case ModeAll, "":
		return SpeciesSet{}, nil
	case ModeLife, ModeYear, ModeMonth:
	default:
		return nil, errors.Newf("unknown list mode %q", mode).
			Component("targets").
			Category(errors.CategoryValidation).
			Context("operation", "reference_set").
			Build()
	}

	codes, err := r.lister.SpeciesList(ctx, r.region)
	if err != nil {
		return nil, errors.New(err).
			Component("targets").
			Category(errors.CategoryReferences).
			Context("region", r.region).
			Build()
	}
	return NewSpeciesSet(codes...), nil
}
