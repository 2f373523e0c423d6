//nolint:lll
package config

// Config represents the complete configuration for the pitchmap application.
// It covers the serve, calibrate, transform and distance commands and
// supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Homography estimation
	Estimator EstimatorConfig `mapstructure:"estimator" yaml:"estimator" json:"estimator"`

	// Session handling
	Session SessionConfig `mapstructure:"session" yaml:"session" json:"session"`

	// Output configuration (for CLI commands)
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxBodyKB       int             `mapstructure:"max_body_kb" yaml:"max_body_kb" json:"max_body_kb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// EstimatorConfig contains RANSAC settings.
type EstimatorConfig struct {
	Threshold     float64 `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	Confidence    float64 `mapstructure:"confidence" yaml:"confidence" json:"confidence"`
	Seed          uint64  `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// SessionConfig contains session registry settings.
type SessionConfig struct {
	DefaultID string `mapstructure:"default_id" yaml:"default_id" json:"default_id"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	Precision int    `mapstructure:"precision" yaml:"precision" json:"precision"`
	Language  string `mapstructure:"language" yaml:"language" json:"language"`
}
