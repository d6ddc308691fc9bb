// Package gonfalon is the client SDK for the gonfalon feature-flag
// service. It evaluates flags for entities through the service's HTTP
// API, caches evaluation results locally for a configurable TTL, and
// retries transient transport failures with bounded backoff.
//
// Basic usage:
//
//	client, err := gonfalon.New("http://localhost:8080",
//		gonfalon.WithAPIKey("secret"),
//		gonfalon.WithCacheTTL(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if client.IsEnabled(ctx, "new-checkout", userID, false) {
//		// serve the new flow
//	}
package gonfalon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
	"github.com/OrlandoBitencourt/gonfalon/internal/localcache"
	"github.com/OrlandoBitencourt/gonfalon/internal/transport"
)

// Client talks to a gonfalon service. It is safe for concurrent use.
type Client struct {
	cfg   Config
	http  *transport.Client
	cache *localcache.Cache // nil when the local cache is disabled

	closeOnce sync.Once
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	tc, err := transport.New(transport.Config{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		AttemptTimeout: cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  cfg,
		http: tc,
	}
	if !cfg.CacheDisabled {
		c.cache = localcache.New(cfg.CacheTTL)
	}
	return c, nil
}

// Close releases the client's resources: the local cache is dropped and
// idle connections are closed. Safe to call multiple times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.cache != nil {
			c.cache.Clear()
		}
		c.http.Close()
	})
}

// Evaluate returns the evaluation of flagKey for entityID. Fresh results
// are served from the local cache without touching the network. An empty
// entityID is valid and evaluates the flag's global coin.
func (c *Client) Evaluate(ctx context.Context, flagKey, entityID string) (*Result, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(flagKey, entityID); ok {
			return toResult(*cached), nil
		}
	}

	query := url.Values{}
	if entityID != "" {
		query.Set("user_id", entityID)
	}

	var result domain.EvaluationResult
	err := c.http.Do(ctx, http.MethodGet, "/flags/"+url.PathEscape(flagKey)+"/evaluate", query, nil, &result)
	if err != nil {
		return nil, flagError(err, flagKey)
	}

	if c.cache != nil {
		c.cache.Set(flagKey, entityID, result)
	}
	return toResult(result), nil
}

// IsEnabled is the convenience form of Evaluate: it returns whether the
// flag is on for entityID, or fallback when evaluation fails for any
// reason (unknown flag, network failure, timeout).
func (c *Client) IsEnabled(ctx context.Context, flagKey, entityID string, fallback bool) bool {
	result, err := c.Evaluate(ctx, flagKey, entityID)
	if err != nil {
		return fallback
	}
	return result.Enabled
}

type bulkEvaluateRequest struct {
	FlagKeys []string `json:"flag_keys"`
	UserID   string   `json:"user_id,omitempty"`
}

type bulkEvaluateEntry struct {
	Key      string `json:"key"`
	Enabled  bool   `json:"enabled"`
	Reason   string `json:"reason"`
	Error    string `json:"error"`
	NotFound bool   `json:"not_found"`
}

type bulkEvaluateResponse struct {
	Results map[string]bulkEvaluateEntry `json:"results"`
}

// EvaluateAll evaluates many flags for one entity in a single request.
// The returned map has one Outcome per requested key; unknown keys carry
// a NotFoundError in their Outcome rather than failing the whole call.
// Keys with fresh local cache entries are answered without the network;
// only the misses are sent to the service.
func (c *Client) EvaluateAll(ctx context.Context, flagKeys []string, entityID string) (map[string]Outcome, error) {
	if len(flagKeys) == 0 {
		return nil, domain.NewValidationError("flag keys cannot be empty")
	}

	outcomes := make(map[string]Outcome, len(flagKeys))

	var misses []string
	for _, key := range flagKeys {
		if _, done := outcomes[key]; done {
			continue
		}
		if c.cache != nil {
			if cached, ok := c.cache.Get(key, entityID); ok {
				outcomes[key] = Outcome{Result: toResult(*cached)}
				continue
			}
		}
		misses = append(misses, key)
	}

	if len(misses) == 0 {
		return outcomes, nil
	}

	var resp bulkEvaluateResponse
	req := bulkEvaluateRequest{FlagKeys: misses, UserID: entityID}
	if err := c.http.Do(ctx, http.MethodPost, "/evaluate", nil, req, &resp); err != nil {
		return nil, err
	}

	for _, key := range misses {
		entry, ok := resp.Results[key]
		if !ok {
			outcomes[key] = Outcome{Err: domain.NewNotFoundError("flag", key)}
			continue
		}
		if entry.Error != "" {
			if entry.NotFound {
				outcomes[key] = Outcome{Err: domain.NewNotFoundError("flag", key)}
			} else {
				outcomes[key] = Outcome{Err: errors.New(entry.Error)}
			}
			continue
		}

		result := domain.EvaluationResult{
			FlagKey: key,
			Enabled: entry.Enabled,
			Reason:  domain.Reason(entry.Reason),
		}
		if c.cache != nil {
			c.cache.Set(key, entityID, result)
		}
		outcomes[key] = Outcome{Result: toResult(result)}
	}
	return outcomes, nil
}

// GetFlag fetches one flag's definition. This always hits the service;
// the local cache holds evaluation results, not definitions.
func (c *Client) GetFlag(ctx context.Context, flagKey string) (*Flag, error) {
	var flag Flag
	err := c.http.Do(ctx, http.MethodGet, "/flags/"+url.PathEscape(flagKey), nil, nil, &flag)
	if err != nil {
		return nil, flagError(err, flagKey)
	}
	return &flag, nil
}

// ListFlags pages through all flags ordered by key. Negative skip and
// non-positive limit fall back to the service defaults.
func (c *Client) ListFlags(ctx context.Context, skip, limit int) ([]Flag, error) {
	query := url.Values{}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var flags []Flag
	if err := c.http.Do(ctx, http.MethodGet, "/flags", query, nil, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// CreateFlag registers a new flag.
func (c *Client) CreateFlag(ctx context.Context, spec FlagSpec) (*Flag, error) {
	var flag Flag
	err := c.http.Do(ctx, http.MethodPost, "/flags", nil, spec, &flag)
	if err != nil {
		return nil, flagError(err, spec.Key)
	}
	return &flag, nil
}

// UpdateFlag applies a partial update and drops the flag's entries from
// the local cache, so this client's next evaluations see the new state.
// Other clients converge when their own cache entries expire.
func (c *Client) UpdateFlag(ctx context.Context, flagKey string, update FlagUpdate) (*Flag, error) {
	var flag Flag
	err := c.http.Do(ctx, http.MethodPut, "/flags/"+url.PathEscape(flagKey), nil, update, &flag)
	if err != nil {
		return nil, flagError(err, flagKey)
	}
	if c.cache != nil {
		c.cache.InvalidateFlag(flagKey)
	}
	return &flag, nil
}

// DeleteFlag removes a flag and drops its local cache entries.
func (c *Client) DeleteFlag(ctx context.Context, flagKey string) error {
	err := c.http.Do(ctx, http.MethodDelete, "/flags/"+url.PathEscape(flagKey), nil, nil, nil)
	if err != nil {
		return flagError(err, flagKey)
	}
	if c.cache != nil {
		c.cache.InvalidateFlag(flagKey)
	}
	return nil
}

// AuditLog returns the most recent audit records for one flag.
func (c *Client) AuditLog(ctx context.Context, flagKey string, limit int) ([]AuditRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var records []AuditRecord
	err := c.http.Do(ctx, http.MethodGet, "/flags/"+url.PathEscape(flagKey)+"/audit", query, nil, &records)
	if err != nil {
		return nil, flagError(err, flagKey)
	}
	return records, nil
}

// CacheStats returns counters for this client's local cache. A disabled
// cache reports zeroes.
func (c *Client) CacheStats() CacheStats {
	if c.cache == nil {
		return CacheStats{}
	}
	return c.cache.Stats()
}

// ClearCache empties the local cache. It does not touch the service's
// shared cache.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// SweepCache drops expired local entries eagerly and reports how many
// were removed. Useful for long-lived clients that evaluate many
// distinct entities.
func (c *Client) SweepCache() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Sweep()
}

// flagError refines a transport error for a flag-keyed operation: a 404
// from the service becomes a typed NotFoundError, a 400 a
// ValidationError. Other errors pass through unchanged.
func flagError(err error, flagKey string) error {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return domain.NewNotFoundError("flag", flagKey)
	case http.StatusBadRequest:
		return domain.NewValidationError(apiErr.Message)
	default:
		return err
	}
}
