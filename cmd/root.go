package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdscout/cmd/config"
	"github.com/tphakala/birdscout/cmd/lifelist"
	"github.com/tphakala/birdscout/cmd/region"
	"github.com/tphakala/birdscout/cmd/saved"
	"github.com/tphakala/birdscout/cmd/search"
	"github.com/tphakala/birdscout/cmd/serve"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/conf"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/telemetry"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "birdscout",
		Short:         "Find recent bird sightings and target species along an area or route",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, &configFile); err != nil {
		panic(err)
	}

	versionCmd := &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{app.SkipInitAnnotation: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), ctx.Build.String())
		},
	}

	rootCmd.AddCommand(
		search.Command(ctx),
		serve.Command(ctx),
		lifelist.Command(ctx),
		region.Command(ctx),
		saved.Command(ctx),
		config.Command(ctx),
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[app.SkipInitAnnotation] != "" {
			return nil
		}
		return initialize(ctx, configFile)
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		telemetry.Flush()
		_ = logger.Global().Flush()
	}

	return rootCmd
}

// initialize loads settings and sets up logging and telemetry before any
// subcommand runs.
func initialize(ctx *app.Context, configFile string) error {
	settings, err := conf.Load(configFile)
	if err != nil {
		return err
	}
	ctx.Settings = settings

	if err := app.SetupLogging(settings.Logging, settings.Debug); err != nil {
		return err
	}
	return telemetry.InitSentry(settings.Sentry, ctx.Build.GetVersion(), nil)
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile *string) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config.yaml (default: search ./, ~/.config/birdscout, /etc/birdscout)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("apikey", "", "eBird API token (overrides ebird.apikey)")

	bindings := map[string]string{
		"debug":        "debug",
		"ebird.apikey": "apikey",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
