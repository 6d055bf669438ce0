// Package region implements the notable sightings and leaderboard commands.
package region

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdscout/cmd/output"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/regions"
)

// Command creates the region parent command
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Look up notable sightings and top observers for an eBird region",
	}
	cmd.AddCommand(notableCommand(ctx), leadersCommand(ctx))
	return cmd
}

func notableCommand(ctx *app.Context) *cobra.Command {
	var (
		format string
		days   int
	)
	cmd := &cobra.Command{
		Use:     "notable REGION",
		Short:   "List sightings eBird flags as notable in a region",
		Example: "  birdscout region notable US-NY --days 7",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			rt, err := app.Build(ctx.Settings, app.Options{})
			if err != nil {
				return err
			}
			defer rt.Close()

			notable, err := rt.Regions.Notable(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, notable, func(w io.Writer) error {
				WriteNotable(w, notable)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 14, "Days to look back (1-30)")
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatText, "Output format: text, json or yaml")
	return cmd
}

func leadersCommand(ctx *app.Context) *cobra.Command {
	var (
		format  string
		req     regions.LeaderboardRequest
		compare bool
	)
	cmd := &cobra.Command{
		Use:   "leaders REGION",
		Short: "Rank the region's top observers by species count",
		Long: `Rank the region's top observers for a calendar year. With --compare the
stored life list size is measured against the leader.`,
		Example: "  birdscout region leaders US-NJ --year 2025 --me \"Ada Finch\" --compare",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			rt, err := app.Build(ctx.Settings, app.Options{OpenStore: compare})
			if err != nil {
				return err
			}
			defer rt.Close()

			req.Region = args[0]
			if compare {
				entries, err := rt.Store.LifeList(cmd.Context())
				if err != nil {
					return err
				}
				count := len(entries)
				req.PersonalCount = &count
			}

			board, err := rt.Regions.Leaderboard(cmd.Context(), req)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, board, func(w io.Writer) error {
				WriteLeaderboard(w, board)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&req.Year, "year", 0, "Leaderboard year (default: current year)")
	flags.IntVar(&req.Limit, "limit", 10, "Observers to show")
	flags.StringVar(&req.Query, "filter", "", "Only show observers whose name contains this text")
	flags.StringVar(&req.Name, "me", "", "Report the rank of this display name")
	flags.BoolVar(&compare, "compare", false, "Compare the stored life list with the leader")
	flags.StringVarP(&format, "output", "o", output.FormatText, "Output format: text, json or yaml")
	return cmd
}

// WriteNotable renders notable sightings as text.
func WriteNotable(w io.Writer, n *regions.Notable) {
	fmt.Fprintf(w, "%d notable species in %s over the last %d days\n", n.Species, n.Region, n.BackDays)
	for i := range n.Sightings {
		o := &n.Sightings[i]
		fmt.Fprintf(w, "%-32s %s  %s\n", o.CommonName, o.ObservedAt, o.LocationName)
	}
}

// WriteLeaderboard renders a leaderboard as text.
func WriteLeaderboard(w io.Writer, b *regions.Leaderboard) {
	fmt.Fprintf(w, "Top observers in %s, %d\n", b.Region, b.Year)
	for i := range b.Observers {
		o := &b.Observers[i]
		fmt.Fprintf(w, "%3d. %-32s %4d sp\n", o.Rank, o.Name(), o.Species)
	}

	s := b.Summary
	fmt.Fprintf(w, "%d observers, %.1f species on average, median %.1f (min %d, max %d)\n",
		s.Total, s.AverageSpecies, s.MedianSpecies, s.MinSpecies, s.MaxSpecies)

	if st := b.Standing; st != nil {
		output.Section(w, "Standing")
		fmt.Fprintf(w, "%s is ranked %d with %d species\n", st.Observer.Name(), st.Rank, st.Observer.Species)
	}
	if p := b.Progress; p != nil {
		output.Section(w, "Your progress")
		fmt.Fprintf(w, "%d of %d species, %.1f%% of the top birder\n", p.PersonalCount, p.LeaderCount, p.PercentOfLeader)
		fmt.Fprintln(w, p.Message)
	}
}
