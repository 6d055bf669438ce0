// Package serve implements the HTTP API command.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/birdscout/internal/api"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability"
)

// Command creates the serve command
func Command(ctx *app.Context) *cobra.Command {
	var metricsListen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long:  "Serve search, life list and saved search endpoints with a server-sent event progress stream.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(runCtx, ctx, metricsListen)
		},
	}

	if err := setupFlags(cmd, &metricsListen); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, metricsListen *string) error {
	cmd.Flags().String("listen", "", "Listen address and port of the API")
	cmd.Flags().Bool("metrics", false, "Expose /metrics on the API listener")
	cmd.Flags().StringVar(metricsListen, "metrics-listen", "", "Serve /metrics on a separate address instead")

	bindings := map[string]string{
		"webserver.listen":  "listen",
		"webserver.metrics": "metrics",
	}
	for key, name := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, appCtx *app.Context, metricsListen string) error {
	settings := appCtx.Settings
	log := logger.Global().Module("serve")

	rt, err := app.Build(settings, app.Options{OpenStore: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := api.New(api.Config{
		Listen:          settings.WebServer.Listen,
		Version:         appCtx.Build.GetVersion(),
		ExposeMetrics:   settings.WebServer.Metrics,
		ShutdownTimeout: settings.WebServer.ShutdownTimeout,
	}, rt.Service, rt.Store, rt.Metrics, api.WithRegions(rt.Regions))
	if err != nil {
		return err
	}

	var endpoint *observability.Endpoint
	if metricsListen != "" {
		if endpoint, err = observability.NewEndpoint(metricsListen, rt.Metrics); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if endpoint != nil {
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	log.Info("birdscout API started",
		logger.String("listen", settings.WebServer.Listen),
		logger.String("version", appCtx.Build.GetVersion()),
		logger.Bool("metrics", settings.WebServer.Metrics))

	return g.Wait()
}
