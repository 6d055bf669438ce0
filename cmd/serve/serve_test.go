package serve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/buildinfo"
	"github.com/tphakala/birdscout/internal/conf"
	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
)

func testContext() *app.Context {
	s := conf.DefaultSettings()
	s.EBird.APIKey = "test-key"
	s.Routing.Provider = "straight"
	s.Datastore.SQLite.Path = datastore.MemoryPath
	s.WebServer.Listen = "127.0.0.1:0"
	s.WebServer.ShutdownTimeout = time.Second
	return &app.Context{Settings: s, Build: buildinfo.NewContext("test", "", "")}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, Run(ctx, testContext(), "127.0.0.1:0"))
}

func TestRunRequiresAPIKey(t *testing.T) {
	appCtx := testContext()
	appCtx.Settings.EBird.APIKey = ""

	err := Run(t.Context(), appCtx, "")
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestCommandFlags(t *testing.T) {
	cmd := Command(testContext())
	assert.NotNil(t, cmd.Flags().Lookup("listen"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics-listen"))
}
