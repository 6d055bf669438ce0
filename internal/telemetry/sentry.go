// Package telemetry wires opt-in Sentry error reporting with privacy filters.
package telemetry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/birdscout/internal/conf"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
)

// FlushTimeout bounds how long Flush waits for queued events.
const FlushTimeout = 2 * time.Second

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("telemetry")
	})
	return serviceLogger
}

// PlatformInfo holds privacy-safe platform information for telemetry
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// InitSentry initializes Sentry when explicitly enabled and installs the
// error reporter. transport may be nil to use the default HTTP transport.
func InitSentry(settings conf.SentrySettings, version string, transport sentry.Transport) error {
	log := GetLogger()
	if !settings.Enabled {
		log.Debug("sentry telemetry is disabled (opt-in required)")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Transport:        transport,
		SampleRate:       1.0,
		Debug:            settings.Debug,
		AttachStacktrace: false,
		Environment:      settings.Environment,
		ServerName:       "",
		Release:          fmt.Sprintf("birdscout@%s", version),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry_init").
			Build()
	}

	platform := collectPlatformInfo()
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("os", platform.OS)
		scope.SetTag("arch", platform.Architecture)
		scope.SetContext("application", map[string]any{
			"name":       "birdscout",
			"version":    version,
			"go_version": platform.GoVersion,
			"num_cpu":    platform.NumCPU,
		})
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	log.Info("sentry telemetry initialized",
		logger.String("environment", settings.Environment),
		logger.String("release", version))
	return nil
}

// applyPrivacyFilters strips host and user identifying data from event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	if event.Request != nil {
		event.Request.Headers = nil
		event.Request.Cookies = ""
		event.Request.QueryString = ""
	}

	return event
}

// Flush waits for queued events and detaches the error reporter.
func Flush() {
	if errors.GetTelemetryReporter() == nil {
		return
	}
	sentry.Flush(FlushTimeout)
	errors.SetTelemetryReporter(nil)
}
