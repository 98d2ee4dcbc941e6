package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often to send a comment line so proxies keep
	// the connection open. 10-15 seconds is safe for most proxies.
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
	}
}
