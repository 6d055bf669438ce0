package ebird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
)

var (
	serviceLogger logger.Logger
	initLogger    sync.Once
)

// GetLogger returns the ebird package logger
func GetLogger() logger.Logger {
	initLogger.Do(func() {
		serviceLogger = logger.Global().Module("ebird")
	})
	return serviceLogger
}

// maxPreview bounds response bodies copied into log lines.
const maxPreview = 500

// Client provides methods for interacting with the eBird API
type Client struct {
	config        Config
	httpClient    *http.Client
	cache         *cache.Cache
	limiter       *rate.Limiter
	log           logger.Logger
	recorder      MetricsRecorder
	firstCallOnce sync.Once

	// Metrics
	metrics struct {
		apiCalls      int64
		cacheHits     int64
		cacheMisses   int64
		apiErrors     int64
		totalDuration time.Duration
		mu            sync.RWMutex
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetricsRecorder forwards request and cache telemetry to r.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithLogger replaces the package logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a new eBird API client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("eBird API key is required").
			Category(errors.CategoryConfiguration).
			Component("ebird").
			Build()
	}

	// Use defaults for missing config values
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.ReferenceCacheTTL == 0 {
		config.ReferenceCacheTTL = defaults.ReferenceCacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:   cache.New(config.CacheTTL, config.CacheTTL*2),
		limiter: rate.NewLimiter(rate.Every(time.Duration(config.RateLimitMS)*time.Millisecond), 1),
		log:     GetLogger(),
	}
	for _, opt := range opts {
		opt(client)
	}

	client.log.Info("eBird client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Duration("reference_cache_ttl", config.ReferenceCacheTTL),
		logger.Int("rate_limit_ms", config.RateLimitMS),
		logger.Bool("debug", config.Debug),
		logger.Bool("api_key_configured", config.APIKey != ""))

	return client, nil
}

// Close releases cached responses.
func (c *Client) Close() {
	c.cache.Flush()
	c.log.Info("Closing eBird client")
}

// cachedGet serves key from cache, or fetches url into a fresh T and caches
// it for ttl.
func cachedGet[T any](ctx context.Context, c *Client, endpoint, key, url string, ttl time.Duration) (T, error) {
	if cached, found := c.cache.Get(key); found {
		if v, ok := cached.(T); ok {
			c.recordCache(endpoint, true)
			c.log.Debug("eBird cache hit",
				logger.String("endpoint", endpoint),
				logger.String("cache_key", key))
			return v, nil
		}
	}
	c.recordCache(endpoint, false)

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result T
	if err := c.doRequestWithRetry(reqCtx, endpoint, http.MethodGet, url, &result); err != nil {
		// doRequest already returns enhanced errors, just return them
		var zero T
		return zero, err
	}

	c.cache.Set(key, result, ttl)
	return result, nil
}

func (c *Client) recordCache(endpoint string, hit bool) {
	c.metrics.mu.Lock()
	if hit {
		c.metrics.cacheHits++
	} else {
		c.metrics.cacheMisses++
	}
	c.metrics.mu.Unlock()

	if c.recorder != nil {
		c.recorder.RecordCache(endpoint, hit)
	}
}

func (c *Client) recordError() {
	c.metrics.mu.Lock()
	c.metrics.apiErrors++
	c.metrics.mu.Unlock()
}

// doRequest performs an HTTP request with rate limiting and auth
func (c *Client) doRequest(ctx context.Context, endpoint, method, url string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.New(err).
			Category(errors.CategoryCancellation).
			Context("url", url).
			Component("ebird").
			Build()
	}

	start := time.Now()
	statusCode := 0
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordRequest(endpoint, statusCode, time.Since(start))
		}
	}()

	// Track API call
	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		c.recordError()
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", url).
			Component("ebird").
			Build()
	}

	// Add authentication header
	req.Header.Set("X-eBirdApiToken", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	if c.config.Debug {
		c.log.Debug("eBird API request",
			logger.String("method", method),
			logger.String("url", url))
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordError()
		c.log.Error("eBird API request failed",
			logger.Error(err),
			logger.String("method", method),
			logger.String("url", url))
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", url).
			Component("ebird").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	statusCode = resp.StatusCode

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordError()
		c.log.Error("Failed to read response body",
			logger.Error(err),
			logger.String("url", url),
			logger.Int("status_code", resp.StatusCode))
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Component("ebird").
			Build()
	}

	// Check content type for non-error responses
	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && !strings.Contains(strings.ToLower(contentType), "application/json") {
		c.recordError()
		c.log.Error("eBird API returned non-JSON response",
			logger.Int("status_code", resp.StatusCode),
			logger.String("content_type", contentType),
			logger.String("url", url),
			logger.String("response_preview", preview(bodyBytes)))

		return errors.Newf("eBird API returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Context("url", url).
			Component("ebird").
			Build()
	}

	// Check for errors
	if resp.StatusCode >= http.StatusBadRequest {
		c.recordError()
		return c.apiError(resp.StatusCode, url, bodyBytes)
	}

	// Parse successful response
	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.log.Error("Failed to parse eBird API response",
				logger.Error(err),
				logger.String("url", url),
				logger.Int("response_size", len(bodyBytes)),
				logger.String("response_preview", preview(bodyBytes)))
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", url).
				Context("response_size", len(bodyBytes)).
				Component("ebird").
				Build()
		}
	}

	duration := time.Since(start)

	// Log first successful API call to confirm authentication
	c.firstCallOnce.Do(func() {
		c.log.Info("eBird API authentication successful",
			logger.String("first_successful_request", endpoint))
	})

	c.log.Debug("eBird API request successful",
		logger.String("endpoint", endpoint),
		logger.String("url", url),
		logger.Int64("duration_ms", duration.Milliseconds()),
		logger.Int("response_size", len(bodyBytes)))

	c.metrics.mu.Lock()
	c.metrics.totalDuration += duration
	c.metrics.mu.Unlock()

	return nil
}

// apiError converts a 4xx/5xx response into an enhanced error, using the
// eBird problem body when it parses.
func (c *Client) apiError(statusCode int, url string, body []byte) error {
	auth := statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden

	var apiErr Error
	if err := json.Unmarshal(body, &apiErr); err != nil || (apiErr.Detail == "" && apiErr.Title == "") {
		if auth {
			c.log.Error("eBird API authentication failed",
				logger.Int("status_code", statusCode),
				logger.String("url", url),
				logger.String("message", "Check your eBird API key in the configuration"))
		} else {
			c.log.Error("eBird API error",
				logger.Int("status_code", statusCode),
				logger.String("url", url),
				logger.String("response_body", preview(body)))
		}

		return errors.Newf("eBird API error (status %d): %s", statusCode, preview(body)).
			Category(getErrorCategory(statusCode)).
			Context("status_code", statusCode).
			Context("url", url).
			Component("ebird").
			Build()
	}
	apiErr.Status = statusCode

	if auth {
		c.log.Error("eBird API authentication failed",
			logger.Int("status_code", statusCode),
			logger.String("error_title", apiErr.Title),
			logger.String("error_detail", apiErr.Detail),
			logger.String("url", url),
			logger.String("message", "Check your eBird API key in the configuration"))
	} else {
		c.log.Warn("eBird API error response",
			logger.Int("status_code", statusCode),
			logger.String("error_title", apiErr.Title),
			logger.String("error_detail", apiErr.Detail),
			logger.String("url", url))
	}

	detail := apiErr.Detail
	if detail == "" {
		detail = apiErr.Title
	}
	return errors.Newf("eBird API error: %s", detail).
		Category(getErrorCategory(statusCode)).
		Context("status_code", statusCode).
		Context("error_title", apiErr.Title).
		Context("url", url).
		Component("ebird").
		Build()
}

// doRequestWithRetry wraps doRequest with retry logic for transient failures
func (c *Client) doRequestWithRetry(ctx context.Context, endpoint, method, url string, result any) error {
	const maxRetries = 3
	var lastErr error

	for attempt := range maxRetries {
		err := c.doRequest(ctx, endpoint, method, url, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return lastErr
		}

		// Linear backoff
		delay := time.Duration(attempt+1) * 500 * time.Millisecond
		if attempt < maxRetries-1 {
			c.log.Warn("eBird API request failed, retrying",
				logger.Int("attempt", attempt+1),
				logger.Int("max_retries", maxRetries),
				logger.Int64("delay_ms", delay.Milliseconds()),
				logger.String("url", url),
				logger.Error(err))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// isRetryable reports whether err is worth another attempt.
func isRetryable(err error) bool {
	var enhancedErr *errors.EnhancedError
	if !errors.As(err, &enhancedErr) {
		return true
	}

	switch enhancedErr.Category {
	case errors.CategoryConfiguration, errors.CategoryNotFound, errors.CategoryValidation,
		errors.CategoryCancellation, errors.CategoryFileParsing:
		return false
	}

	if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
		// Don't retry client errors except 429
		if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// ClearCache clears all cached data
func (c *Client) ClearCache() {
	c.cache.Flush()
	c.log.Info("eBird cache cleared")
}

// GetCacheStats returns the number of cached responses
func (c *Client) GetCacheStats() int {
	return c.cache.ItemCount()
}

// GetMetrics returns current client metrics
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	metrics := Metrics{
		APICalls:      c.metrics.apiCalls,
		CacheHits:     c.metrics.cacheHits,
		CacheMisses:   c.metrics.cacheMisses,
		APIErrors:     c.metrics.apiErrors,
		TotalDuration: c.metrics.totalDuration,
	}

	if metrics.APICalls > 0 {
		metrics.AvgDuration = time.Duration(int64(metrics.TotalDuration) / metrics.APICalls)
	}

	return metrics
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusBadRequest:
		return errors.CategoryValidation
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryFetch
	}
}

func preview(body []byte) string {
	if len(body) > maxPreview {
		return fmt.Sprintf("%s...", body[:maxPreview])
	}
	return string(body)
}
