package gonfalon

import "time"

// Option configures a Client during New.
type Option func(*Config)

// WithAPIKey sets the key sent in the X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithMaxRetries sets how many times a transient failure is retried
// after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithRetryBackoff sets the base delay between retry attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Config) { c.RetryBackoff = d }
}

// WithCacheTTL sets how long cached evaluation results remain fresh.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.CacheTTL = d }
}

// WithCacheDisabled turns the local evaluation cache off.
func WithCacheDisabled() Option {
	return func(c *Config) { c.CacheDisabled = true }
}
