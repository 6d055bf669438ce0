package ebird

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observation"
)

// Endpoint labels used for metrics and cache keys.
const (
	EndpointGeoRecent     = "geo_recent"
	EndpointRegionRecent  = "region_recent"
	EndpointRegionNotable = "region_notable"
	EndpointHotspotsGeo   = "hotspots_geo"
)

// RecentObservations returns full-detail sightings within radiusKm of point
// over the last backDays days. The radius is clamped to MaxRadiusKm.
func (c *Client) RecentObservations(ctx context.Context, point geo.Coordinate, radiusKm float64, backDays int) ([]observation.Observation, error) {
	if err := point.Validate(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryValidation).
			Component("ebird").
			Context("operation", "recent_observations").
			Build()
	}

	q := url.Values{}
	q.Set("lat", formatCoord(point.Lat))
	q.Set("lng", formatCoord(point.Lng))
	q.Set("dist", strconv.FormatFloat(ClampRadius(radiusKm), 'f', -1, 64))
	q.Set("back", strconv.Itoa(ClampBackDays(backDays)))
	q.Set("detail", "full")

	endpoint := c.config.BaseURL + "/data/obs/geo/recent?" + q.Encode()
	key := "obs:geo:" + q.Encode()

	obs, err := cachedGet[[]observation.Observation](ctx, c, EndpointGeoRecent, key, endpoint, c.config.CacheTTL)
	if err != nil {
		return nil, err
	}

	c.log.Debug("recent observations fetched",
		logger.String("point", point.String()),
		logger.Int("count", len(obs)))
	return obs, nil
}

// RegionObservations returns full-detail sightings reported in an eBird
// region code such as "US-NY" or "US-NY-109".
func (c *Client) RegionObservations(ctx context.Context, region string, backDays, maxResults int) ([]observation.Observation, error) {
	region, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 || maxResults > DefaultMaxResults {
		maxResults = DefaultMaxResults
	}

	q := url.Values{}
	q.Set("back", strconv.Itoa(ClampBackDays(backDays)))
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("detail", "full")

	endpoint := fmt.Sprintf("%s/data/obs/%s/recent?%s", c.config.BaseURL, url.PathEscape(region), q.Encode())
	key := "obs:region:" + region + ":" + q.Encode()

	return cachedGet[[]observation.Observation](ctx, c, EndpointRegionRecent, key, endpoint, c.config.CacheTTL)
}

// NotableObservations returns the sightings eBird flags as notable in a region.
func (c *Client) NotableObservations(ctx context.Context, region string, backDays int) ([]observation.Observation, error) {
	region, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("back", strconv.Itoa(ClampBackDays(backDays)))
	q.Set("detail", "full")

	endpoint := fmt.Sprintf("%s/data/obs/%s/recent/notable?%s", c.config.BaseURL, url.PathEscape(region), q.Encode())
	key := "obs:notable:" + region + ":" + q.Encode()

	return cachedGet[[]observation.Observation](ctx, c, EndpointRegionNotable, key, endpoint, c.config.CacheTTL)
}

// Hotspots returns the public hotspots within radiusKm of point.
func (c *Client) Hotspots(ctx context.Context, point geo.Coordinate, radiusKm float64) ([]observation.Hotspot, error) {
	if err := point.Validate(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryValidation).
			Component("ebird").
			Context("operation", "hotspots").
			Build()
	}

	q := url.Values{}
	q.Set("lat", formatCoord(point.Lat))
	q.Set("lng", formatCoord(point.Lng))
	q.Set("dist", strconv.FormatFloat(ClampRadius(radiusKm), 'f', -1, 64))
	q.Set("fmt", "json")

	endpoint := c.config.BaseURL + "/ref/hotspot/geo?" + q.Encode()
	key := "hotspots:" + q.Encode()

	return cachedGet[[]observation.Hotspot](ctx, c, EndpointHotspotsGeo, key, endpoint, c.config.ReferenceCacheTTL)
}

// formatCoord renders a coordinate with four decimals, about 11 m, so nearby
// sample points share cache entries.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func normalizeRegion(region string) (string, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" || strings.ContainsAny(region, "/?# ") {
		return "", errors.Newf("invalid region code %q", region).
			Category(errors.CategoryValidation).
			Component("ebird").
			Build()
	}
	return region, nil
}
