package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observability/metrics"
	"github.com/tphakala/birdscout/internal/search"
)

const (
	streamEndpoint = "search_stream"
	// sseWriteTimeout bounds each event write to a slow client.
	sseWriteTimeout = 10 * time.Second
)

// SSE event names.
const (
	EventSnapshot = "snapshot"
	EventResult   = "result"
	EventError    = "error"
)

// bindRequest decodes and validates the search request body.
func bindRequest(ctx echo.Context) (search.Request, error) {
	var req search.Request
	if err := ctx.Bind(&req); err != nil {
		return req, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "bind_search_request").
			Build()
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// RunSearch runs a search to completion and returns the result as JSON.
func (c *Controller) RunSearch(ctx echo.Context) error {
	req, err := bindRequest(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid search request")
	}

	result, err := c.service.Search(ctx.Request().Context(), req, nil)
	if err != nil {
		return c.HandleError(ctx, err, "Search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// StreamSearch runs a search and streams progressive snapshots as
// server-sent events, followed by one result or error event. Invalid
// requests are rejected with a JSON error before the stream opens.
func (c *Controller) StreamSearch(ctx echo.Context) error {
	req, err := bindRequest(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid search request")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	started := time.Now()
	if c.http != nil {
		c.http.SSEConnectionStarted(streamEndpoint)
	}
	reason := metrics.SSECloseReasonClosed
	defer func() {
		if c.http != nil {
			c.http.SSEConnectionClosed(streamEndpoint, time.Since(started).Seconds(), reason)
		}
	}()

	// A failed write means the client is gone; stop fetching.
	runCtx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()
	var writeErr error
	progress := func(s search.Snapshot) {
		if writeErr != nil {
			return
		}
		if writeErr = c.sendSSEMessage(ctx, EventSnapshot, s); writeErr != nil {
			cancel()
		}
	}

	result, err := c.service.Search(runCtx, req, progress)
	switch {
	case writeErr != nil:
		reason = metrics.SSECloseReasonCanceled
		c.log.Debug("search stream client went away", logger.Error(writeErr))
		return nil
	case ctx.Request().Context().Err() != nil:
		reason = metrics.SSECloseReasonCanceled
		return nil
	case err != nil:
		reason = metrics.SSECloseReasonError
		return c.sendSSEMessage(ctx, EventError, NewErrorResponse(err, "Search failed", StatusForError(err)))
	}
	return c.sendSSEMessage(ctx, EventResult, result)
}

// sendSSEMessage writes one server-sent event and flushes it.
func (c *Controller) sendSSEMessage(ctx echo.Context, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE data: %w", err)
	}

	// Not all response writers support deadlines.
	rc := http.NewResponseController(ctx.Response().Writer)
	_ = rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout))

	if _, err := fmt.Fprintf(ctx.Response(), "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		if c.http != nil {
			c.http.RecordSSEError(streamEndpoint, "write")
		}
		return fmt.Errorf("failed to write SSE message: %w", err)
	}
	ctx.Response().Flush()

	if c.http != nil {
		c.http.RecordSSEMessageSent(streamEndpoint, event)
	}
	return nil
}
