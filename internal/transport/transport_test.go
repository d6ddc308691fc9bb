package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func fastConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		AttemptTimeout: 100 * time.Millisecond,
		MaxRetries:     2,
		RetryBackoff:   5 * time.Millisecond,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig("http://localhost:8080").Validate())

	bad := DefaultConfig("")
	assert.Error(t, bad.Validate())

	neg := DefaultConfig("http://localhost")
	neg.MaxRetries = -1
	assert.Error(t, neg.Validate())

	zero := DefaultConfig("http://localhost")
	zero.AttemptTimeout = 0
	assert.Error(t, zero.Validate())
}

func TestDoSuccess(t *testing.T) {
	var gotPath, gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		gotQuery = r.URL.Query().Get("user_id")
		_ = json.NewEncoder(w).Encode(map[string]any{"key": "checkout", "enabled": true})
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.APIKey = "secret"
	c := newClient(t, cfg)

	var out struct {
		Key     string `json:"key"`
		Enabled bool   `json:"enabled"`
	}
	query := url.Values{"user_id": {"user-1"}}
	err := c.Do(context.Background(), http.MethodGet, "/flags/checkout/evaluate", query, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "/flags/checkout/evaluate", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "user-1", gotQuery)
	assert.True(t, out.Enabled)
}

func TestDoSendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, fastConfig(srv.URL))
	err := c.Do(context.Background(), http.MethodPost, "/flags", nil, map[string]string{"key": "checkout"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "checkout", gotBody["key"])
}

func TestDoAPIErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	c := newClient(t, fastConfig(srv.URL))
	err := c.Do(context.Background(), http.MethodGet, "/flags", nil, nil, nil)

	// A well-formed error response got through; retrying cannot help.
	require.Error(t, err)
	assert.True(t, domain.IsAPIError(err))
	assert.Equal(t, int32(1), attempts.Load())

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestDoNotFoundSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "flag not found: ghost"})
	}))
	defer srv.Close()

	c := newClient(t, fastConfig(srv.URL))
	err := c.Do(context.Background(), http.MethodGet, "/flags/ghost", nil, nil, nil)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDoRetriesTimeouts(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.AttemptTimeout = 50 * time.Millisecond
	c := newClient(t, cfg)

	err := c.Do(context.Background(), http.MethodGet, "/flags", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, domain.IsTimeout(err))

	// First attempt plus MaxRetries retries.
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDoRetriesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close() // nothing listens anymore

	start := time.Now()
	c := newClient(t, fastConfig(baseURL))
	err := c.Do(context.Background(), http.MethodGet, "/flags", nil, nil, nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, domain.IsNetworkError(err))
	// Linear backoff of 5ms and 10ms between three fast failures.
	assert.Less(t, elapsed, 2*time.Second)
}

func TestDoZeroRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.AttemptTimeout = 50 * time.Millisecond
	cfg.MaxRetries = 0
	c := newClient(t, cfg)

	err := c.Do(context.Background(), http.MethodGet, "/flags", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoCancellationStopsRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.AttemptTimeout = 50 * time.Millisecond
	cfg.RetryBackoff = 10 * time.Second // cancellation must interrupt this
	c := newClient(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Do(ctx, http.MethodGet, "/flags", nil, nil, nil)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoCallerDeadlineIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := newClient(t, fastConfig(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, http.MethodGet, "/flags", nil, nil, nil)
	// The caller's own deadline surfaces as a context error, not as a
	// retryable transport failure.
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestApiMessage(t *testing.T) {
	assert.Equal(t, "boom", apiMessage([]byte(`{"error":"boom"}`)))
	assert.Equal(t, "plain text", apiMessage([]byte("plain text")))
	assert.Equal(t, "unknown error", apiMessage(nil))
	assert.Equal(t, "unknown error", apiMessage([]byte("   ")))
}
