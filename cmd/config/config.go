// Package config implements the config init and show commands.
package config

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/conf"
)

// redacted replaces secrets in printed settings.
const redacted = "[redacted]"

// Command creates the config parent command
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}
	cmd.AddCommand(initCommand(), showCommand(ctx))
	return cmd
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "init [PATH]",
		Short:       "Write a config.yaml with default settings",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{app.SkipInitAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				var err error
				if path, err = conf.UserConfigPath(); err != nil {
					return err
				}
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", path)
			return nil
		},
	}
}

func showCommand(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return WriteRedacted(cmd.OutOrStdout(), ctx.Settings)
		},
	}
}

// WriteRedacted writes settings as YAML with credentials replaced.
func WriteRedacted(w io.Writer, settings *conf.Settings) error {
	s := *settings
	if s.EBird.APIKey != "" {
		s.EBird.APIKey = redacted
	}
	if s.Datastore.MySQL.Password != "" {
		s.Datastore.MySQL.Password = redacted
	}
	if s.Sentry.DSN != "" {
		s.Sentry.DSN = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&s); err != nil {
		return err
	}
	return enc.Close()
}
