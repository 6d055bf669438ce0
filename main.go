package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/birdscout/cmd"
	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version   string
	buildDate string
	commit    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	appCtx := &app.Context{Build: buildinfo.NewContext(version, buildDate, commit)}
	err := cmd.RootCommand(appCtx).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
