package search

import (
	"fmt"
	"io"

	"github.com/tphakala/birdscout/cmd/output"
	"github.com/tphakala/birdscout/internal/observation"
	pipeline "github.com/tphakala/birdscout/internal/search"
	"github.com/tphakala/birdscout/internal/targets"
)

// View selects optional text sections.
type View struct {
	// Cards shows one target per species instead of every sighting.
	Cards bool
	// Report adds the per-species target report and tier counts.
	Report bool
}

// WriteText renders a human readable summary of result.
func WriteText(w io.Writer, result *pipeline.Result) error {
	return WriteTextView(w, result, View{})
}

// WriteTextView renders result with the sections view asks for.
func WriteTextView(w io.Writer, result *pipeline.Result, view View) error {
	st := result.Stats
	fmt.Fprintf(w, "%s search, list mode %s, radius %.0f km, last %d days\n",
		result.Mode, result.ListMode, result.RadiusKm, result.LookbackDays)
	if result.SpeciesCode != "" {
		fmt.Fprintf(w, "species: %s\n", result.SpeciesCode)
	}
	if result.Route != nil {
		fmt.Fprintf(w, "route: %.1f km via %s\n", result.Route.DistanceKm, result.Route.Provider)
	}
	fmt.Fprintf(w, "points: %d sampled", st.SamplePoints)
	if st.Truncated {
		fmt.Fprintf(w, " (capped from %d)", st.RequestedPoints)
	}
	if st.FailedPoints > 0 {
		fmt.Fprintf(w, ", %d failed", st.FailedPoints)
	}
	fmt.Fprintf(w, "\nsightings: %d raw, %d unique, %d species\n", st.RawObservations, st.UniqueSightings, st.Species)

	if shown := result.Targets; len(shown) > 0 {
		title := "Targets"
		if view.Cards {
			shown, title = targets.Cards(shown), "Target species"
		}
		output.Section(w, fmt.Sprintf("%s (%d)", title, len(shown)))
		for i := range shown {
			t := &shown[i]
			fmt.Fprintf(w, "%-32s %-9s %5.1f%%  %s  %s\n",
				t.CommonName, t.Tier, t.Frequency, t.ObservedAt, t.LocationName)
		}
	}

	if view.Report && len(result.Summary.Report) > 0 {
		writeReport(w, &result.Summary)
	}

	if len(result.Checklists) > 0 {
		output.Section(w, "Top checklists")
		for i := range result.Checklists {
			c := &result.Checklists[i]
			fmt.Fprintf(w, "%3d species  %-10s %s  %s\n", c.SpeciesCount(), c.ID, c.ObservedAt, c.LocationName)
			if c.URL != "" {
				fmt.Fprintf(w, "             %s\n", c.URL)
			}
		}
	}

	if len(result.Hotspots) > 0 {
		output.Section(w, "Top hotspots")
		for i := range result.Hotspots {
			h := &result.Hotspots[i]
			fmt.Fprintf(w, "%4d species  %-10s %s\n", h.SpeciesAllTime, h.LocationID, h.Name)
		}
	}

	if result.Insights != nil {
		writeInsights(w, result.Insights)
	}

	if len(result.Targets) == 0 && len(result.UniqueSightings) > 0 {
		output.Section(w, "Recent sightings")
		writeSightings(w, result.UniqueSightings)
	}
	return nil
}

func writeSightings(w io.Writer, list []observation.Observation) {
	for i := range list {
		o := &list[i]
		fmt.Fprintf(w, "%-32s %s  %s\n", o.CommonName, o.ObservedAt, o.LocationName)
	}
}

func writeReport(w io.Writer, summary *pipeline.Summary) {
	st := summary.Targets
	output.Section(w, "Target report")
	fmt.Fprintf(w, "%d species: %d expected, %d uncommon, %d notable, %d rare\n",
		st.Species, st.ByTier[targets.TierExpected], st.ByTier[targets.TierUncommon],
		st.ByTier[targets.TierNotable], st.ByTier[targets.TierRare])
	for i := range summary.Report {
		e := &summary.Report[i]
		label := observation.RarityLabel(e.RarityCode)
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(w, "%-32s %-10s %3d seen  last %s  %s\n",
			e.CommonName, label, e.Sightings, e.LastSeenAt, e.LastLocation)
	}

	cs := summary.Checklists
	fmt.Fprintf(w, "checklists: %d, %.1f species on average (min %d, max %d)\n",
		cs.Total, cs.AverageSpecies, cs.MinSpecies, cs.MaxSpecies)
}

func writeInsights(w io.Writer, in *pipeline.Insights) {
	output.Section(w, "Comparisons")
	if c := in.Checklists; c != nil {
		fmt.Fprintf(w, "checklists: %d shared, %d only in first, %d only in second, %d total\n",
			len(c.Shared), len(c.OnlyFirst), len(c.OnlySecond), c.TotalSpecies)
	}
	if h := in.Hotspots; h != nil {
		fmt.Fprintf(w, "hotspots: %s leads by %d species\n", h.Winner, h.Difference)
	}
	if n := in.NearestHotspot; n != nil {
		fmt.Fprintf(w, "nearest hotspot: %s (%s), %.1f mi\n", n.Hotspot.Name, n.Hotspot.LocationID, n.DistanceMi)
	}
}
