package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/regions"
)

// Query defaults for the region routes.
const (
	defaultNotableDays = 14
	maxLeaderboardRows = 100
)

// GetNotable returns the notable sightings of a region.
func (c *Controller) GetNotable(ctx echo.Context) error {
	days, err := intParam(ctx, "days", defaultNotableDays)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid notable query")
	}

	notable, err := c.regions.Notable(ctx.Request().Context(), ctx.Param("region"), days)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load notable sightings")
	}
	return ctx.JSON(http.StatusOK, notable)
}

// GetLeaderboard returns the ranked top observers of a region.
func (c *Controller) GetLeaderboard(ctx echo.Context) error {
	req := regions.LeaderboardRequest{
		Region: ctx.Param("region"),
		Query:  ctx.QueryParam("q"),
		Name:   ctx.QueryParam("name"),
	}

	var err error
	if req.Year, err = intParam(ctx, "year", 0); err != nil {
		return c.HandleError(ctx, err, "Invalid leaderboard query")
	}
	if req.Limit, err = intParam(ctx, "limit", 0); err != nil {
		return c.HandleError(ctx, err, "Invalid leaderboard query")
	}
	if req.Limit < 0 || req.Limit > maxLeaderboardRows {
		return c.HandleError(ctx, errors.Newf("limit must be between 0 and %d", maxLeaderboardRows).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Invalid leaderboard query")
	}
	if ctx.QueryParam("count") != "" {
		count, err := intParam(ctx, "count", 0)
		if err != nil {
			return c.HandleError(ctx, err, "Invalid leaderboard query")
		}
		req.PersonalCount = &count
	}

	board, err := c.regions.Leaderboard(ctx.Request().Context(), req)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load leaderboard")
	}
	return ctx.JSON(http.StatusOK, board)
}

// intParam parses an integer query parameter, returning fallback when it is
// absent.
func intParam(ctx echo.Context, name string, fallback int) (int, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("param", name).
			Build()
	}
	return v, nil
}
