package ebird

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdscout/internal/logger"
)

// mockResponse represents a mocked HTTP response
type mockResponse struct {
	status      int
	body        string
	contentType string
}

// setupTestClient creates a test client with the given server
func setupTestClient(tb testing.TB, server *httptest.Server, opts ...Option) *Client {
	tb.Helper()

	config := Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Timeout:     5 * time.Second,
		CacheTTL:    1 * time.Hour,
		RateLimitMS: 1, // Fast for tests
	}

	opts = append([]Option{WithLogger(logger.NewSlogLogger(nil, logger.LogLevelError, nil))}, opts...)
	client, err := NewClient(config, opts...)
	require.NoError(tb, err)

	tb.Cleanup(client.Close)

	return client
}

// setupMockServer creates a mock server with predefined responses keyed by
// path plus raw query. hits counts every request that reached the server.
func setupMockServer(tb testing.TB, responses map[string]mockResponse) (*httptest.Server, *atomic.Int32) {
	tb.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		// Check API key
		if apiKey := r.Header.Get("X-eBirdApiToken"); apiKey == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"title": "Unauthorized", "status": 401, "detail": "Missing API key"}`))
			return
		}

		// Find matching response
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}

		if response, ok := responses[key]; ok {
			if response.contentType != "" {
				w.Header().Set("Content-Type", response.contentType)
			} else {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(response.status)
			_, _ = w.Write([]byte(response.body))
			return
		}

		// Default 404
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"title": "Not Found", "status": 404, "detail": "Endpoint not found"}`))
	}))
	tb.Cleanup(server.Close)

	return server, &hits
}

// loadTestData loads test data from testdata directory
func loadTestData(tb testing.TB, filename string) string {
	tb.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", filename)) //nolint:gosec // G304: test fixture path
	require.NoError(tb, err)

	return string(data)
}
