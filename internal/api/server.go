// Package api serves the search pipeline, life list and saved searches over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability"
	"github.com/tphakala/birdscout/internal/regions"
	"github.com/tphakala/birdscout/internal/search"
)

// Default server limits.
const (
	DefaultBodyLimit       = "1M"
	DefaultShutdownTimeout = 10 * time.Second
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the api package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("api")
	})
	return serviceLogger
}

// Config holds the HTTP server settings.
type Config struct {
	Listen          string
	Version         string
	BodyLimit       string
	AllowedOrigins  []string
	ExposeMetrics   bool
	ShutdownTimeout time.Duration
}

// Server is the HTTP server for birdscout. It owns the Echo instance and the
// API controller.
type Server struct {
	echo       *echo.Echo
	config     Config
	controller *Controller
	metrics    *observability.Metrics
	log        logger.Logger
	startTime  time.Time
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithRegions serves the region notable and leaderboard routes from svc.
func WithRegions(svc *regions.Service) Option {
	return func(s *Server) {
		s.controller.regions = svc
	}
}

// New creates a server with middleware and routes registered. ds and
// metrics may be nil; the routes that need them are then not registered.
func New(cfg Config, svc *search.Service, ds datastore.Interface, metrics *observability.Metrics, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.Newf("search service is required").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = DefaultBodyLimit
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		config:    cfg,
		metrics:   metrics,
		log:       GetLogger(),
		startTime: time.Now(),
	}
	s.controller = NewController(svc, ds, metrics)
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(NewRequestLogger(s.log))
	if s.metrics != nil {
		s.echo.Use(NewMetricsMiddleware(s.metrics.HTTP))
	}
	if len(s.config.AllowedOrigins) > 0 {
		s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: s.config.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	if s.config.ExposeMetrics && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	s.controller.RegisterRoutes(s.echo.Group("/api/v1"))
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.config.Version,
		"datastore":      s.controller.ds != nil,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server starting", logger.String("address", s.config.Listen))
		if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.New(err).
				Component("api").
				Category(errors.CategoryNetwork).
				Context("address", s.config.Listen).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutdown signal received, stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return err
	}
	// Wait for the serve goroutine to exit.
	<-errCh
	s.log.Info("Server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
