// Package lifelist implements the life list import and show commands.
package lifelist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdscout/cmd/output"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/targets"
)

// Command creates the lifelist parent command
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lifelist",
		Short: "Manage the personal life list used for life, year and month targets",
	}
	cmd.AddCommand(importCommand(ctx), showCommand(ctx))
	return cmd
}

func importCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the life list with entries from a YAML or JSON file",
		Long: `Replace the stored life list. The file holds a list of entries, either at
the top level or under "entries":

  - comName: Blue Jay
    lastSeen: 2026-05-02T00:00:00Z
  - comName: Osprey`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.New(err).
					Component("cli").
					Category(errors.CategoryFileIO).
					Context("file", args[0]).
					Build()
			}
			defer f.Close()

			entries, err := ParseEntries(f, filepath.Ext(args[0]))
			if err != nil {
				return err
			}

			rt, err := app.Build(ctx.Settings, app.Options{OpenStore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Store.ReplaceLifeList(cmd.Context(), datastore.FromTargetEntries(entries)); err != nil {
				return err
			}
			stored, err := rt.Store.LifeList(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries, life list has %d species\n", len(entries), len(stored))
			return nil
		},
	}
}

func showCommand(ctx *app.Context) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored life list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := output.ValidateFormat(format); err != nil {
				return err
			}
			rt, err := app.Build(ctx.Settings, app.Options{OpenStore: true})
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.Store.LifeList(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, entries, func(w io.Writer) error {
				for i := range entries {
					seen := "-"
					if entries[i].LastSeen != nil {
						seen = entries[i].LastSeen.Format("2006-01-02")
					}
					fmt.Fprintf(w, "%-40s %s\n", entries[i].CommonName, seen)
				}
				fmt.Fprintf(w, "%d species\n", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", output.FormatText, "Output format: text, json or yaml")
	return cmd
}

// entryFile accepts entries at the top level or under "entries".
type entryFile struct {
	Entries []targets.Entry `json:"entries" yaml:"entries"`
}

// ParseEntries decodes life list entries. ext selects JSON for ".json";
// anything else is read as YAML, which also accepts JSON.
func ParseEntries(r io.Reader, ext string) ([]targets.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).Component("cli").Category(errors.CategoryFileIO).Build()
	}

	unmarshal := yaml.Unmarshal
	if strings.EqualFold(ext, ".json") {
		unmarshal = json.Unmarshal
	}

	var entries []targets.Entry
	if err := unmarshal(data, &entries); err != nil {
		var wrapped entryFile
		if err2 := unmarshal(data, &wrapped); err2 != nil {
			return nil, errors.New(err).
				Component("cli").
				Category(errors.CategoryFileParsing).
				Build()
		}
		entries = wrapped.Entries
	}

	for i := range entries {
		entries[i].CommonName = strings.TrimSpace(entries[i].CommonName)
		if entries[i].CommonName == "" {
			return nil, errors.Newf("entry %d has no comName", i+1).
				Component("cli").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return entries, nil
}
