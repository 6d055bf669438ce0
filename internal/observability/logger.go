package observability

import (
	"sync"

	"github.com/tphakala/birdscout/internal/logger"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the observability package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("telemetry")
	})
	return serviceLogger
}
