package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdscout/internal/datastore"
	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/search"
	"github.com/tphakala/birdscout/internal/targets"
)

// LifeListImport is the body of PUT /lifelist.
type LifeListImport struct {
	Entries []targets.Entry `json:"entries" validate:"required,max=20000,dive"`
}

// LifeListResponse is the body of GET /lifelist.
type LifeListResponse struct {
	Count   int                       `json:"count"`
	Entries []datastore.LifeListEntry `json:"entries"`
}

// GetLifeList returns the stored life list.
func (c *Controller) GetLifeList(ctx echo.Context) error {
	entries, err := c.ds.LifeList(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load life list")
	}
	return ctx.JSON(http.StatusOK, LifeListResponse{Count: len(entries), Entries: entries})
}

// ReplaceLifeList replaces the stored life list with the request entries.
func (c *Controller) ReplaceLifeList(ctx echo.Context) error {
	var body LifeListImport
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "bind_life_list").
			Build(), "Invalid life list")
	}
	if err := search.Validator().Struct(&body); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid life list")
	}
	for i := range body.Entries {
		if body.Entries[i].CommonName == "" {
			return c.HandleError(ctx, errors.Newf("entry %d has no common name", i).
				Component("api").
				Category(errors.CategoryValidation).
				Build(), "Invalid life list")
		}
	}

	if err := c.ds.ReplaceLifeList(ctx.Request().Context(), datastore.FromTargetEntries(body.Entries)); err != nil {
		return c.HandleError(ctx, err, "Failed to store life list")
	}

	entries, err := c.ds.LifeList(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load life list")
	}
	c.log.Info("life list replaced",
		logger.Int("submitted", len(body.Entries)),
		logger.Int("stored", len(entries)))
	return ctx.JSON(http.StatusOK, LifeListResponse{Count: len(entries), Entries: entries})
}
