package api

import (
	"fmt"
	"net"
	"time"

	"github.com/tphakala/orderlens/internal/conf"
)

// Default constants for the HTTP server.
const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "1M"
	DefaultQueryRate       = 10
	DefaultQueryBurst      = 20
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// BodyLimit bounds request bodies, e.g. "1M".
	BodyLimit string
	// QueryRate limits POST /query per client IP in requests per second.
	// Zero disables the limit.
	QueryRate  float64
	QueryBurst int
	Debug      bool
}

// DefaultConfig returns a Config with the default timeouts.
func DefaultConfig() *Config {
	return &Config{
		Listen:          DefaultListen,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		QueryRate:       DefaultQueryRate,
		QueryBurst:      DefaultQueryBurst,
	}
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings == nil {
		return cfg
	}
	if settings.Server.Listen != "" {
		cfg.Listen = settings.Server.Listen
	}
	// Keep the write deadline past the query deadline so timeouts reach the client as JSON.
	if t := settings.Query.Timeout + 5*time.Second; t > cfg.WriteTimeout {
		cfg.WriteTimeout = t
	}
	cfg.QueryRate = settings.Server.QueryRateLimit
	cfg.QueryBurst = settings.Server.QueryRateBurst
	cfg.Debug = settings.Debug
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.QueryRate < 0 || c.QueryBurst < 0 {
		return fmt.Errorf("query rate limit must not be negative")
	}
	return nil
}
