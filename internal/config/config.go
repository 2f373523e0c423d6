package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/server"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	est := homography.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxBodyKB:       1024,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 600,
				RequestsPerHour:   20000,
				MaxRequestsPerDay: 200000,
				MaxDataPerDay:     1 << 30,
			},
		},
		Estimator: EstimatorConfig{
			Threshold:     est.Threshold,
			MaxIterations: est.MaxIterations,
			Confidence:    est.Confidence,
			Seed:          est.Seed,
		},
		Session: SessionConfig{
			DefaultID: session.DefaultID,
		},
		Output: OutputConfig{
			Format:    "text",
			Precision: 4,
			Language:  "en",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.Precision < 0 || c.Output.Precision > 12 {
		return fmt.Errorf("invalid output precision: %d (must be between 0 and 12)", c.Output.Precision)
	}
	if c.Output.Language != "" {
		if _, err := language.Parse(c.Output.Language); err != nil {
			return fmt.Errorf("invalid output language: %s: %w", c.Output.Language, err)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxBodyKB <= 0 {
		return fmt.Errorf("invalid max body size: %d (must be positive)", c.Server.MaxBodyKB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", c.Server.ShutdownTimeout)
	}
	if err := c.Server.RateLimit.validate(); err != nil {
		return err
	}

	if err := c.EstimatorOptions().Validate(); err != nil {
		return fmt.Errorf("invalid estimator settings: %w", err)
	}

	if strings.TrimSpace(c.Session.DefaultID) == "" {
		return fmt.Errorf("invalid session default id: must not be empty")
	}

	return nil
}

func (r RateLimitConfig) validate() error {
	if !r.Enabled {
		return nil
	}
	if r.RequestsPerMinute < 0 || r.RequestsPerHour < 0 || r.MaxRequestsPerDay < 0 || r.MaxDataPerDay < 0 {
		return fmt.Errorf("invalid rate limit: limits must not be negative")
	}
	return nil
}

// EstimatorOptions converts the estimator section to homography.Options.
func (c *Config) EstimatorOptions() homography.Options {
	return homography.Options{
		Threshold:     c.Estimator.Threshold,
		MaxIterations: c.Estimator.MaxIterations,
		Confidence:    c.Estimator.Confidence,
		Seed:          c.Estimator.Seed,
	}
}

// ToServerConfig converts the server section to the internal server configuration format.
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		CORSOrigin:      c.Server.CORSOrigin,
		MaxBodyBytes:    int64(c.Server.MaxBodyKB) * 1024,
		Timeout:         time.Duration(c.Server.TimeoutSec) * time.Second,
		ShutdownTimeout: time.Duration(c.Server.ShutdownTimeout) * time.Second,
		RateLimit: server.RateLimitConfig{
			Enabled:           c.Server.RateLimit.Enabled,
			RequestsPerMinute: c.Server.RateLimit.RequestsPerMinute,
			RequestsPerHour:   c.Server.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: c.Server.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     c.Server.RateLimit.MaxDataPerDay,
		},
	}
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
