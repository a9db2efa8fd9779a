package ratelimit

import (
	"time"

	"github.com/jonathan/job-recommender/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path; a trailing "/" makes it a prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTimeout     time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromConfig builds the limiter configuration from the application config.
func FromConfig(cfg config.RateLimitConfig) *Config {
	return &Config{
		Enabled:         cfg.Enabled,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: cfg.CleanupInterval,
		IdleTimeout:     time.Hour,
		Whitelist:       toSet(cfg.Whitelist),
		Blacklist:       toSet(cfg.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Calls that reach external services or fetch pages.
		{Path: "/session/ingest/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/session/interview", Method: "GET", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/api/company-info", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/job-essays", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/job-tips", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/comprehensive-job-info", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},

		// Login redirects.
		{Path: "/auth/", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		// Everything else uses the default limit; health and metrics are unlimited.
	}
}

func toSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
