package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdscout/internal/app"
	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/search"
)

// SavedSearchRequest is the body of POST /searches.
type SavedSearchRequest struct {
	Name    string         `json:"name" validate:"required,max=200"`
	Notes   string         `json:"notes" validate:"max=2000"`
	Request search.Request `json:"request"`
}

// SavedSearchRun is the body returned by POST /searches/:id/run.
type SavedSearchRun struct {
	Search *datastore.SavedSearch `json:"search"`
	Result *search.Result         `json:"result"`
}

// ListSavedSearches returns all saved searches, newest first.
func (c *Controller) ListSavedSearches(ctx echo.Context) error {
	list, err := c.ds.SavedSearches(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list saved searches")
	}
	return ctx.JSON(http.StatusOK, list)
}

// CreateSavedSearch stores a new saved search.
func (c *Controller) CreateSavedSearch(ctx echo.Context) error {
	var body SavedSearchRequest
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "bind_saved_search").
			Build(), "Invalid saved search")
	}
	if err := search.Validator().Struct(&body); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid saved search")
	}

	saved, err := app.NewSavedSearch(body.Name, body.Notes, body.Request)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid saved search")
	}
	if err := c.ds.SaveSearch(ctx.Request().Context(), saved); err != nil {
		return c.HandleError(ctx, err, "Failed to save search")
	}
	return ctx.JSON(http.StatusCreated, saved)
}

// GetSavedSearch returns one saved search.
func (c *Controller) GetSavedSearch(ctx echo.Context) error {
	saved, err := c.ds.GetSavedSearch(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Saved search not found")
	}
	return ctx.JSON(http.StatusOK, saved)
}

// DeleteSavedSearch removes one saved search.
func (c *Controller) DeleteSavedSearch(ctx echo.Context) error {
	if err := c.ds.DeleteSavedSearch(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return c.HandleError(ctx, err, "Failed to delete saved search")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RunSavedSearch re-runs a saved search and records the run.
func (c *Controller) RunSavedSearch(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	saved, err := c.ds.GetSavedSearch(reqCtx, ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Saved search not found")
	}

	req, err := search.DecodeRequest(saved.Request)
	if err != nil {
		return c.HandleError(ctx, err, "Stored search request is invalid")
	}

	result, err := c.service.Search(reqCtx, req, nil)
	if err != nil {
		return c.HandleError(ctx, err, "Search failed")
	}

	now := time.Now().UTC()
	if err := c.ds.MarkSearchRun(reqCtx, saved.ID, len(result.UniqueSightings), now); err != nil {
		return c.HandleError(ctx, err, "Failed to record search run")
	}
	saved.ResultCount = len(result.UniqueSightings)
	saved.LastRunAt = &now

	return ctx.JSON(http.StatusOK, SavedSearchRun{Search: saved, Result: result})
}
