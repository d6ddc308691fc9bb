package gonfalon

import (
	"fmt"
	"strings"
	"time"

	"github.com/OrlandoBitencourt/gonfalon/internal/localcache"
	"github.com/OrlandoBitencourt/gonfalon/internal/transport"
)

// Config holds the SDK client configuration. Zero values are filled in
// from DefaultConfig during New.
type Config struct {
	// BaseURL is the root URL of the flag service, e.g. "http://localhost:8080".
	BaseURL string

	// APIKey is sent on every request. Leave empty for services that do
	// not require authentication for reads.
	APIKey string

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient failures. Application-level errors are never retried.
	MaxRetries int

	// RetryBackoff is the base delay between attempts; attempt n waits
	// n times this value.
	RetryBackoff time.Duration

	// CacheTTL is how long evaluation results are served from the local
	// cache before the service is consulted again.
	CacheTTL time.Duration

	// CacheDisabled turns the local cache off entirely. Every
	// evaluation then hits the service.
	CacheDisabled bool
}

// DefaultConfig returns the configuration used when no options override it.
func DefaultConfig() Config {
	tc := transport.DefaultConfig("")
	return Config{
		Timeout:      tc.AttemptTimeout,
		MaxRetries:   tc.MaxRetries,
		RetryBackoff: tc.RetryBackoff,
		CacheTTL:     localcache.DefaultTTL,
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative, got %s", c.RetryBackoff)
	}
	if !c.CacheDisabled && c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}
