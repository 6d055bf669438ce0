package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/regions"
	"github.com/tphakala/birdscout/internal/search"
)

// Controller holds the handlers of the /api/v1 group.
type Controller struct {
	service *search.Service
	regions *regions.Service
	ds      datastore.Interface
	http    *metrics.HTTPMetrics
	log     logger.Logger
}

// NewController creates a controller. ds and m may be nil.
func NewController(svc *search.Service, ds datastore.Interface, m *observability.Metrics) *Controller {
	c := &Controller{service: svc, ds: ds, log: GetLogger()}
	if m != nil {
		c.http = m.HTTP
	}
	return c
}

// RegisterRoutes mounts the API on g. Region routes need a region service;
// life list and saved search routes need a datastore.
func (c *Controller) RegisterRoutes(g *echo.Group) {
	g.POST("/search", c.RunSearch)
	g.POST("/search/stream", c.StreamSearch)

	if c.regions != nil {
		g.GET("/regions/:region/notable", c.GetNotable)
		g.GET("/regions/:region/leaders", c.GetLeaderboard)
	}

	if c.ds == nil {
		return
	}
	g.GET("/lifelist", c.GetLifeList)
	g.PUT("/lifelist", c.ReplaceLifeList)

	g.GET("/searches", c.ListSavedSearches)
	g.POST("/searches", c.CreateSavedSearch)
	g.GET("/searches/:id", c.GetSavedSearch)
	g.DELETE("/searches/:id", c.DeleteSavedSearch)
	g.POST("/searches/:id/run", c.RunSavedSearch)
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	Category      string `json:"category,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	resp := &ErrorResponse{
		Error:         message,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Category = errorType(err)
	}
	return resp
}

// StatusForError maps an error category to an HTTP status code.
func StatusForError(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	switch errors.ErrorCategory(errorType(err)) {
	case errors.CategoryValidation, errors.CategoryFileParsing:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryLimit:
		return http.StatusTooManyRequests
	case errors.CategoryConfiguration:
		return http.StatusServiceUnavailable
	case errors.CategoryCancellation, errors.CategoryTimeout:
		return http.StatusRequestTimeout
	case errors.CategoryNetwork, errors.CategoryHTTP, errors.CategoryFetch,
		errors.CategoryRouting, errors.CategoryReferences, errors.CategoryIntegration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorType returns the category of an enhanced error, or "generic".
func errorType(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return string(ee.Category)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return "http"
	}
	return string(errors.CategoryGeneric)
}

// HandleError logs err and writes it as an ErrorResponse with a status
// derived from its category.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := StatusForError(err)
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}
