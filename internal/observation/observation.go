// Package observation defines the sighting and hotspot records that flow
// through the search pipeline. Field names follow the eBird API v2 wire format.
package observation

import (
	"strings"
	"time"
)

// Observation is one species reported at one location at one time, as
// submitted in one checklist.
type Observation struct {
	SpeciesCode    string  `json:"speciesCode" yaml:"speciesCode"`
	CommonName     string  `json:"comName" yaml:"comName"`
	ScientificName string  `json:"sciName" yaml:"sciName"`
	LocationID     string  `json:"locId" yaml:"locId"`
	LocationName   string  `json:"locName" yaml:"locName"`
	ObservedAt     string  `json:"obsDt" yaml:"obsDt"` // "2006-01-02 15:04" or "2006-01-02"
	HowMany        int     `json:"howMany,omitempty" yaml:"howMany,omitempty"`
	Lat            float64 `json:"lat" yaml:"lat"`
	Lng            float64 `json:"lng" yaml:"lng"`
	Valid          bool    `json:"obsValid" yaml:"obsValid"`
	Reviewed       bool    `json:"obsReviewed" yaml:"obsReviewed"`
	Private        bool    `json:"locationPrivate" yaml:"locationPrivate"`
	ChecklistID    string  `json:"subId,omitempty" yaml:"subId,omitempty"`
	Observer       string  `json:"userDisplayName,omitempty" yaml:"userDisplayName,omitempty"`
	// RarityCode is the ABA code 1 (common) to 6 (extirpated). Zero means unknown.
	RarityCode int `json:"abaCode,omitempty" yaml:"abaCode,omitempty"`
}

// HasRarity reports whether the rarity code is present.
func (o *Observation) HasRarity() bool {
	return o.RarityCode > 0
}

// SpeciesName returns the common name, or the species code when the name is
// missing. Species sets and frequency tables are keyed by this value.
func (o *Observation) SpeciesName() string {
	if o.CommonName != "" {
		return o.CommonName
	}
	return o.SpeciesCode
}

// Time parses ObservedAt. The second result is false when the timestamp is
// missing or malformed.
func (o *Observation) Time() (time.Time, bool) {
	return ParseTime(o.ObservedAt)
}

// Hotspot is a public birding location.
type Hotspot struct {
	LocationID       string  `json:"locId" yaml:"locId"`
	Name             string  `json:"locName" yaml:"locName"`
	CountryCode      string  `json:"countryCode" yaml:"countryCode"`
	Subnational1Code string  `json:"subnational1Code" yaml:"subnational1Code"`
	Lat              float64 `json:"lat" yaml:"lat"`
	Lng              float64 `json:"lng" yaml:"lng"`
	LatestObservedAt string  `json:"latestObsDt,omitempty" yaml:"latestObsDt,omitempty"`
	SpeciesAllTime   int     `json:"numSpeciesAllTime" yaml:"numSpeciesAllTime"`
}

// timeLayouts are tried in order by ParseTime.
var timeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an eBird observation timestamp. Values carry no zone and
// are interpreted as UTC so that comparisons are stable.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ChecklistBaseURL is the public eBird checklist page prefix.
const ChecklistBaseURL = "https://ebird.org/checklist/"

// ChecklistURL returns the public page for a checklist id, or "" when id is empty.
func ChecklistURL(id string) string {
	if id == "" {
		return ""
	}
	return ChecklistBaseURL + id
}

// rarityLabels maps ABA codes to their names.
var rarityLabels = map[int]string{
	1: "Common",
	2: "Uncommon",
	3: "Rare",
	4: "Very Rare",
	5: "Mega Rare",
	6: "Extirpated",
}

// RarityLabel returns the ABA label for code, or "" for unknown codes.
func RarityLabel(code int) string {
	return rarityLabels[code]
}

// TopObserver is one row of a regional top-100 leaderboard.
type TopObserver struct {
	UserID      string `json:"userId" yaml:"userId"`
	DisplayName string `json:"userDisplayName" yaml:"userDisplayName"`
	Species     int    `json:"numSpecies" yaml:"numSpecies"`
	Checklists  int    `json:"numCompleteChecklists" yaml:"numCompleteChecklists"`
	Rank        int    `json:"rowNum" yaml:"rowNum"`
}

// Name returns the display name, or "Unknown Birder" when it is missing.
func (t *TopObserver) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return "Unknown Birder"
}
