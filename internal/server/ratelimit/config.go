package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// NewConfig builds the server's limits. rankPerMinute bounds the ranking and
// extraction endpoints, which call embedding and LLM providers; zero disables
// limiting entirely. whitelist is a comma-separated list of client IPs.
func NewConfig(rankPerMinute int, defaultPerMinute int, whitelist ...string) *Config {
	if rankPerMinute <= 0 {
		return &Config{Enabled: false}
	}
	if defaultPerMinute <= 0 {
		defaultPerMinute = 600
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    defaultPerMinute,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseIPList(strings.Join(whitelist, ",")),
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(rankPerMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits.
func DefaultEndpointConfigs(rankPerMinute int) []EndpointConfig {
	burst := max(1, rankPerMinute/5)
	return []EndpointConfig{
		{Path: "/rank", Method: "POST", Limit: rankPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/rank/stream", Method: "POST", Limit: rankPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/rank/export", Method: "POST", Limit: rankPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/sections", Method: "POST", Limit: rankPerMinute * 2, Window: time.Minute, Burst: burst * 2},
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
