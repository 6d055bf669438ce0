// Package saved implements the saved search commands.
package saved

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/birdscout/cmd/output"
	searchcmd "github.com/tphakala/birdscout/cmd/search"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/search"
)

// Command creates the saved parent command
func Command(ctx *app.Context) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List, show, delete and re-run saved searches",
	}
	cmd.PersistentFlags().StringVarP(&format, "output", "o", output.FormatText, "Output format: text, json or yaml")

	cmd.AddCommand(
		listCommand(ctx, &format),
		showCommand(ctx, &format),
		deleteCommand(ctx),
		runCommand(ctx, &format),
	)
	return cmd
}

// withStore opens the runtime with a datastore for fn.
func withStore(ctx *app.Context, fn func(rt *app.Runtime) error) error {
	rt, err := app.Build(ctx.Settings, app.Options{OpenStore: true})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func listCommand(ctx *app.Context, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved searches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(ctx, func(rt *app.Runtime) error {
				list, err := rt.Store.SavedSearches(cmd.Context())
				if err != nil {
					return err
				}
				return output.Write(cmd.OutOrStdout(), *format, list, func(w io.Writer) error {
					for i := range list {
						WriteSummary(w, &list[i])
					}
					return nil
				})
			})
		},
	}
}

func showCommand(ctx *app.Context, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(rt *app.Runtime) error {
				s, err := rt.Store.GetSavedSearch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return output.Write(cmd.OutOrStdout(), *format, s, func(w io.Writer) error {
					WriteSummary(w, s)
					if s.Notes != "" {
						fmt.Fprintf(w, "  notes: %s\n", s.Notes)
					}
					fmt.Fprintf(w, "  request: %s\n", s.Request)
					return nil
				})
			})
		},
	}
}

func deleteCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, func(rt *app.Runtime) error {
				if err := rt.Store.DeleteSavedSearch(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func runCommand(ctx *app.Context, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run ID",
		Short: "Re-run a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.ValidateFormat(*format); err != nil {
				return err
			}
			return withStore(ctx, func(rt *app.Runtime) error {
				s, err := rt.Store.GetSavedSearch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				req, err := search.DecodeRequest(s.Request)
				if err != nil {
					return err
				}
				result, err := rt.Service.Search(cmd.Context(), req, nil)
				if err != nil {
					return err
				}
				if err := rt.Store.MarkSearchRun(cmd.Context(), s.ID, len(result.UniqueSightings), time.Now()); err != nil {
					return err
				}
				return output.Write(cmd.OutOrStdout(), *format, result, func(w io.Writer) error {
					return searchcmd.WriteText(w, result)
				})
			})
		},
	}
}

// WriteSummary prints one line describing s.
func WriteSummary(w io.Writer, s *datastore.SavedSearch) {
	lastRun := "never run"
	if s.LastRunAt != nil {
		lastRun = fmt.Sprintf("last run %s, %d sightings", s.LastRunAt.Format(time.DateTime), s.ResultCount)
	}
	fmt.Fprintf(w, "%s  %-6s %s (%s)\n", s.ID, s.Mode, s.Name, lastRun)
}
