// Package api hosts the HTTP server. The JSON endpoints live in the v2
// subpackage.
package api

import (
	"fmt"
	"time"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultListen          = ":8080"
	DefaultBodyLimit       = "16M"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	Listen         string   // address to listen on
	MaxConnections int      // concurrent connection cap, 0 for unlimited
	BodyLimit      string   // maximum request body size, e.g. "16M"
	AllowedOrigins []string // CORS allowed origins

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Debug bool
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          DefaultListen,
		BodyLimit:       DefaultBodyLimit,
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// ConfigFromSettings creates a Config from the webserver settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()
	if settings.WebServer.Listen != "" {
		cfg.Listen = settings.WebServer.Listen
	}
	if settings.WebServer.BodyLimit != "" {
		cfg.BodyLimit = settings.WebServer.BodyLimit
	}
	cfg.MaxConnections = settings.WebServer.MaxConnections
	cfg.Debug = settings.Debug
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var problems []string
	if c.Listen == "" {
		problems = append(problems, "listen address is required")
	}
	if c.MaxConnections < 0 {
		problems = append(problems, "max connections must not be negative")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		problems = append(problems, "timeouts must be positive")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.Newf("invalid server configuration: %v", problems).
		Component("api").
		Category(errors.CategoryConfiguration).
		Build()
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Server Config: listen=%s, max_connections=%d, body_limit=%s",
		c.Listen, c.MaxConnections, c.BodyLimit)
}
