package ebird

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
	"github.com/tphakala/birdscout/internal/observation"
)

// Endpoint labels for the product endpoints.
const (
	EndpointSpeciesList  = "species_list"
	EndpointTopObservers = "top_observers"
)

// firstLeaderboardYear is the earliest year eBird publishes top-100 lists for.
const firstLeaderboardYear = 1900

// SpeciesList returns the species codes ever reported in region.
func (c *Client) SpeciesList(ctx context.Context, region string) ([]string, error) {
	region, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/product/spplist/%s", c.config.BaseURL, url.PathEscape(region))
	codes, err := cachedGet[[]string](ctx, c, EndpointSpeciesList, "spplist:"+region, endpoint, c.config.ReferenceCacheTTL)
	if err != nil {
		return nil, err
	}

	c.log.Debug("species list fetched",
		logger.String("region", region),
		logger.Int("count", len(codes)))
	return codes, nil
}

// TopObservers returns the top-100 leaderboard of region for a calendar year,
// ranked by species count. A zero year means the current one.
func (c *Client) TopObservers(ctx context.Context, region string, year int) ([]observation.TopObserver, error) {
	region, err := normalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = time.Now().Year()
	}
	if year < firstLeaderboardYear || year > time.Now().Year()+1 {
		return nil, errors.Newf("invalid leaderboard year %d", year).
			Category(errors.CategoryValidation).
			Component("ebird").
			Context("operation", "top_observers").
			Build()
	}

	q := url.Values{}
	q.Set("rankedBy", "spp")
	q.Set("maxResults", "100")

	endpoint := fmt.Sprintf("%s/product/top100/%s/%d/1/1?%s", c.config.BaseURL, url.PathEscape(region), year, q.Encode())
	key := "top100:" + region + ":" + strconv.Itoa(year)

	return cachedGet[[]observation.TopObserver](ctx, c, EndpointTopObservers, key, endpoint, c.config.ReferenceCacheTTL)
}
