// Package transport is the SDK's HTTP client: bounded retries with backoff
// for transient failures, immediate propagation of well-formed remote
// errors, and cancellation checked between attempts.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

// Config holds transport settings. Worst-case latency per request is
// AttemptTimeout*(1+MaxRetries) plus the backoff delays between attempts.
type Config struct {
	BaseURL        string
	APIKey         string
	AttemptTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// DefaultConfig returns the SDK transport defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		AttemptTimeout: 5 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   500 * time.Millisecond,
	}
}

// Validate checks the transport configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Client performs JSON requests against the flag service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a transport client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
	}, nil
}

// Close releases idle connections. Safe to call multiple times.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Do performs one logical request: marshal body, retry transient failures
// with linear backoff, decode the response into result.
//
// Only NetworkError and TimeoutError are retried. A well-formed error
// response from the service (APIError) means the request got through and is
// returned immediately. Context cancellation stops the loop at the next
// checkpoint, including mid-backoff.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.cfg.RetryBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.doAttempt(ctx, method, path, query, body, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func isRetryable(err error) bool {
	return domain.IsNetworkError(err) || domain.IsTimeout(err)
}

func (c *Client) doAttempt(ctx context.Context, method, path string, query url.Values, body, result any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	reqURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewAPIError(resp.StatusCode, apiMessage(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// classify splits transport failures into caller cancellation, timeouts,
// and network errors.
func classify(ctx context.Context, err error) error {
	// The caller gave up; not a failure of the remote side.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewTimeoutError(err)
	}
	return domain.NewNetworkError(err)
}

// apiMessage pulls the error message out of a service error payload,
// falling back to the raw body.
func apiMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "unknown error"
	}
	return msg
}
