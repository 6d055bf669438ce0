// Package search implements the search command family.
package search

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdscout/cmd/output"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	pipeline "github.com/tphakala/birdscout/internal/search"
	"github.com/tphakala/birdscout/pkg/spinner"
)

// options are the flags shared by all search subcommands.
type options struct {
	species  string
	output   string
	progress bool
	save     string
	near     string
	refine   pipeline.Refinement
	view     View
}

// refinement returns the refinement the flags describe, or nil when no
// refinement flag was set.
func (o *options) refinement() (*pipeline.Refinement, error) {
	r := o.refine
	if o.near != "" {
		near, err := ParseCoordinate(o.near)
		if err != nil {
			return nil, err
		}
		r.Near = &near
	}
	if reflect.ValueOf(r).IsZero() {
		return nil, nil
	}
	return &r, nil
}

// Command creates the search parent command
func Command(ctx *app.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search recent sightings around a point, across a box, along a route or in a region",
	}

	if err := setupFlags(cmd, opts); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		pointCommand(ctx, opts),
		boxCommand(ctx, opts),
		routeCommand(ctx, opts),
		regionCommand(ctx, opts),
	)
	return cmd
}

// setupFlags configures flags shared by the search subcommands. Pipeline
// tunables bind to viper so they override the config file.
func setupFlags(cmd *cobra.Command, opts *options) error {
	flags := cmd.PersistentFlags()
	flags.Float64("radius", 0, "Search radius in km around each sample point (max 50)")
	flags.Int("days", 0, "Lookback window in days (1-30)")
	flags.String("list", "", "Target list mode: all, life, year or month")
	flags.Int("top", 0, "Number of checklists and hotspots to keep")
	flags.StringVar(&opts.species, "species", "", "Restrict results to one eBird species code")
	flags.StringVarP(&opts.output, "output", "o", output.FormatText, "Output format: text, json or yaml")
	flags.BoolVar(&opts.progress, "progress", false, "Print progress snapshots to stderr")
	flags.StringVar(&opts.save, "save", "", "Save the search under this name")

	flags.IntVar(&opts.refine.MinRarity, "min-rarity", 0, "Only show targets with at least this ABA rarity code (1-6)")
	flags.StringVar(&opts.refine.Query, "filter", "", "Only show targets whose name or location contains this text")
	flags.StringVar(&opts.refine.Observer, "observer", "", "Only show checklists by observers matching this name")
	flags.StringVar(&opts.refine.Since, "since", "", "Only show checklists on or after this date (YYYY-MM-DD)")
	flags.StringVar(&opts.refine.Until, "until", "", "Only show checklists on or before this date (YYYY-MM-DD)")
	flags.IntVar(&opts.refine.MinHotspotSpecies, "min-hotspot-species", 0, "Only show hotspots with at least this many species")
	flags.StringVar(&opts.refine.HotspotQuery, "hotspot-filter", "", "Only show hotspots whose name or id contains this text")
	flags.StringSliceVar(&opts.refine.CompareChecklists, "compare-checklists", nil, "Compare two checklists, e.g. S1234,S5678")
	flags.StringSliceVar(&opts.refine.CompareHotspots, "compare-hotspots", nil, "Compare two hotspots, e.g. L99381,L123456")
	flags.StringVar(&opts.near, "near", "", "Report the hotspot nearest to LAT,LNG")
	flags.BoolVar(&opts.view.Cards, "cards", false, "Show one target per species")
	flags.BoolVar(&opts.view.Report, "report", false, "Add the per-species target report")

	bindings := map[string]string{
		"search.radiuskm":     "radius",
		"search.lookbackdays": "days",
		"search.listmode":     "list",
		"search.topn":         "top",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func pointCommand(ctx *app.Context, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "point LAT,LNG",
		Short:   "Search around one location",
		Example: "  birdscout search point 42.4534,-76.4735 --radius 10",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			point, err := ParseCoordinate(args[0])
			if err != nil {
				return err
			}
			return run(cmd, ctx, opts, pipeline.Request{Mode: pipeline.ModePoint, Point: &point})
		},
	}
}

func boxCommand(ctx *app.Context, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "box SOUTH,WEST,NORTH,EAST",
		Short:   "Search a grid of sample points across a bounding box",
		Example: "  birdscout search box 42.0,-77.0,43.0,-76.0",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := ParseBox(args[0])
			if err != nil {
				return err
			}
			return run(cmd, ctx, opts, pipeline.Request{Mode: pipeline.ModeBox, Box: &box})
		},
	}
}

func routeCommand(ctx *app.Context, opts *options) *cobra.Command {
	var via []string
	cmd := &cobra.Command{
		Use:     "route FROM TO",
		Short:   "Search sample points along a route",
		Example: "  birdscout search route 42.44,-76.50 40.71,-74.00 --via 41.50,-75.00",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, err := ParseCoordinate(args[0])
			if err != nil {
				return err
			}
			destination, err := ParseCoordinate(args[1])
			if err != nil {
				return err
			}
			waypoints := make([]geo.Coordinate, 0, len(via))
			for _, v := range via {
				c, err := ParseCoordinate(v)
				if err != nil {
					return err
				}
				waypoints = append(waypoints, c)
			}
			return run(cmd, ctx, opts, pipeline.Request{
				Mode:        pipeline.ModeRoute,
				Origin:      &origin,
				Destination: &destination,
				Waypoints:   waypoints,
			})
		},
	}
	cmd.Flags().StringArrayVar(&via, "via", nil, "Waypoint LAT,LNG (repeatable)")
	return cmd
}

func regionCommand(ctx *app.Context, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "region CODE",
		Short:   "Search one eBird region, e.g. US-NY",
		Example: "  birdscout search region US-NY-109 --list year",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts, pipeline.Request{Mode: pipeline.ModeRegion, Region: strings.ToUpper(args[0])})
		},
	}
}

// run executes req with the wired service and renders the result.
func run(cmd *cobra.Command, ctx *app.Context, opts *options, req pipeline.Request) error {
	if err := output.ValidateFormat(opts.output); err != nil {
		return err
	}
	req.SpeciesCode = opts.species
	refine, err := opts.refinement()
	if err != nil {
		return err
	}
	req.Refine = refine
	if err := req.Validate(); err != nil {
		return err
	}

	rt, err := app.Build(ctx.Settings, app.Options{OpenStore: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	var progress pipeline.ProgressFunc
	spin := spinner.New(cmd.ErrOrStderr())
	if opts.progress {
		progress = func(s pipeline.Snapshot) {
			spin.Update(fmt.Sprintf("%d/%d points, %d failed, %d unique sightings",
				s.Completed, s.Total, s.FailedPoints, len(s.Unique)))
		}
	}

	result, err := rt.Service.Search(cmd.Context(), req, progress)
	spin.Done()
	if err != nil {
		return err
	}

	if opts.save != "" {
		saved, err := rt.SaveSearch(cmd.Context(), opts.save, "", req, len(result.UniqueSightings))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved search %q as %s\n", saved.Name, saved.ID)
	}

	return output.Write(cmd.OutOrStdout(), opts.output, result, func(w io.Writer) error {
		return WriteTextView(w, result, opts.view)
	})
}

// ParseCoordinate parses "LAT,LNG".
func ParseCoordinate(s string) (geo.Coordinate, error) {
	values, err := parseFloats(s, 2)
	if err != nil {
		return geo.Coordinate{}, err
	}
	c := geo.Coordinate{Lat: values[0], Lng: values[1]}
	return c, c.Validate()
}

// ParseBox parses "SOUTH,WEST,NORTH,EAST".
func ParseBox(s string) (geo.BoundingBox, error) {
	values, err := parseFloats(s, 4)
	if err != nil {
		return geo.BoundingBox{}, err
	}
	b := geo.BoundingBox{South: values[0], West: values[1], North: values[2], East: values[3]}
	return b, b.Validate()
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.Newf("expected %d comma separated numbers, got %q", n, s).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	values := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New(err).
				Component("cli").
				Category(errors.CategoryValidation).
				Context("value", p).
				Build()
		}
		values[i] = v
	}
	return values, nil
}
