// Package datastore persists the personal life list and saved searches.
package datastore

import (
	"time"
)

// LifeListEntry is one species on the user's personal list.
type LifeListEntry struct {
	ID             uint       `gorm:"primaryKey" json:"-" yaml:"-"`
	CommonName     string     `gorm:"size:128;uniqueIndex;not null" json:"comName" yaml:"comName"`
	ScientificName string     `gorm:"size:128" json:"sciName,omitempty" yaml:"sciName,omitempty"`
	SpeciesCode    string     `gorm:"size:16;index" json:"speciesCode,omitempty" yaml:"speciesCode,omitempty"`
	LastSeen       *time.Time `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"` // nil when unknown
	CreatedAt      time.Time  `json:"-" yaml:"-"`
	UpdatedAt      time.Time  `json:"-" yaml:"-"`
}

// TableName overrides the default table name
func (LifeListEntry) TableName() string {
	return "life_list_entries"
}

// SavedSearch is a named search that can be listed and re-run.
type SavedSearch struct {
	ID    string `gorm:"primaryKey;size:36" json:"id" yaml:"id"`
	Name  string `gorm:"size:200;not null;index" json:"name" yaml:"name"`
	Notes string `gorm:"size:2000" json:"notes,omitempty" yaml:"notes,omitempty"`
	Mode  string `gorm:"size:16;not null" json:"mode" yaml:"mode"`
	// Request is the JSON-encoded search request.
	Request      string     `gorm:"type:text;not null" json:"request" yaml:"request"`
	RadiusKm     float64    `json:"radiusKm" yaml:"radiusKm"`
	LookbackDays int        `json:"lookbackDays" yaml:"lookbackDays"`
	ResultCount  int        `json:"resultCount" yaml:"resultCount"`
	LastRunAt    *time.Time `json:"lastRunAt,omitempty" yaml:"lastRunAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// TableName overrides the default table name
func (SavedSearch) TableName() string {
	return "saved_searches"
}

// models lists every table managed by AutoMigrate.
func models() []any {
	return []any{&LifeListEntry{}, &SavedSearch{}}
}
