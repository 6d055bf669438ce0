package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/geo"
	"github.com/tphakala/birdscout/internal/logger"
)

// OSRMConfig configures the OSRM HTTP client.
type OSRMConfig struct {
	BaseURL string        `json:"base_url"`
	Profile string        `json:"profile"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultOSRMConfig points at the public demo server.
func DefaultOSRMConfig() OSRMConfig {
	return OSRMConfig{
		BaseURL: "https://router.project-osrm.org",
		Profile: "driving",
		Timeout: 20 * time.Second,
	}
}

// OSRM queries an OSRM route service.
type OSRM struct {
	config     OSRMConfig
	httpClient *http.Client
	log        logger.Logger
}

// osrmResponse is the subset of the OSRM route response we read.
type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"` // [lng, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// NewOSRM creates an OSRM router. Missing values take DefaultOSRMConfig.
func NewOSRM(config OSRMConfig) (*OSRM, error) {
	defaults := DefaultOSRMConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Profile == "" {
		config.Profile = defaults.Profile
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if strings.ContainsAny(config.Profile, "/?#") {
		return nil, errors.Newf("invalid OSRM profile %q", config.Profile).
			Component("routing").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &OSRM{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        GetLogger(),
	}, nil
}

// SetHTTPClient replaces the HTTP client, e.g. to inject a mock transport.
func (o *OSRM) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		o.httpClient = hc
	}
}

// Route implements Router.
func (o *OSRM) Route(ctx context.Context, origin, destination geo.Coordinate, waypoints []geo.Coordinate) (*Route, error) {
	all, err := stops(origin, destination, waypoints)
	if err != nil {
		return nil, err
	}

	coords := make([]string, len(all))
	for i, c := range all {
		coords[i] = strconv.FormatFloat(c.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(c.Lat, 'f', 6, 64)
	}
	url := fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson",
		o.config.BaseURL, o.config.Profile, strings.Join(coords, ";"))

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Newf("failed to create OSRM request: %w", err).
			Component("routing").
			Category(errors.CategoryRouting).
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.log.Warn("OSRM request failed", logger.Error(err), logger.String("url", url))
		return nil, errors.Newf("OSRM request failed: %w", err).
			Component("routing").
			Category(errors.CategoryRouting).
			NetworkContext(url, o.config.Timeout).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("failed to read OSRM response: %w", err).
			Component("routing").
			Category(errors.CategoryRouting).
			Build()
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Newf("failed to parse OSRM response (status %d): %w", resp.StatusCode, err).
			Component("routing").
			Category(errors.CategoryFileParsing).
			Context("status_code", resp.StatusCode).
			Build()
	}

	if resp.StatusCode != http.StatusOK || parsed.Code != "Ok" {
		category := errors.CategoryRouting
		if parsed.Code == "NoRoute" || parsed.Code == "NoSegment" {
			category = errors.CategoryNotFound
		}
		return nil, errors.Newf("OSRM returned %s: %s", parsed.Code, parsed.Message).
			Component("routing").
			Category(category).
			Context("status_code", resp.StatusCode).
			Context("osrm_code", parsed.Code).
			Build()
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Geometry.Coordinates) == 0 {
		return nil, errors.Newf("OSRM returned no route").
			Component("routing").
			Category(errors.CategoryNotFound).
			Build()
	}

	best := parsed.Routes[0]
	path := make([]geo.Coordinate, len(best.Geometry.Coordinates))
	for i, pair := range best.Geometry.Coordinates {
		path[i] = geo.Coordinate{Lat: pair[1], Lng: pair[0]}
	}

	route := &Route{
		Path:       path,
		DistanceKm: best.Distance / 1000,
		Provider:   ProviderOSRM,
	}

	o.log.Info("route fetched",
		logger.String("provider", ProviderOSRM),
		logger.Int("stops", len(all)),
		logger.Int("vertices", len(path)),
		logger.Float64("distance_km", route.DistanceKm),
		logger.Duration("elapsed", time.Since(start)))

	return route, nil
}
