package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// chdirTemp switches into an empty temporary directory for the rest of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(originalWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	// Keep home and XDG lookups away from real user configuration.
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	return tmpDir
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Estimator.MaxIterations != 2000 {
		t.Errorf("Expected default max_iterations 2000, got %d", cfg.Estimator.MaxIterations)
	}
}

// TestLoadDiscoversConfigInWorkingDirectory tests the search path lookup.
func TestLoadDiscoversConfigInWorkingDirectory(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "pitchmap.yaml", "server:\n  port: 9191\n")

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.Server.Port)
	}
	if loader.GetConfigFileUsed() == "" {
		t.Error("Expected a config file to be recorded")
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "pitchmap.yaml", `
log_level: debug
verbose: true
server:
  host: 0.0.0.0
  port: 9090
  cors_origin: https://analysis.example.com
  rate_limit:
    enabled: true
    requests_per_minute: 30
estimator:
  threshold: 0.75
  max_iterations: 500
  confidence: 0.99
  seed: 7
session:
  default_id: main
`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}

	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level 'debug', got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("Expected 0.0.0.0:9090, got %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "https://analysis.example.com" {
		t.Errorf("unexpected cors origin %s", cfg.Server.CORSOrigin)
	}
	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("unexpected rate limit %+v", cfg.Server.RateLimit)
	}
	// Unset keys keep their defaults
	if cfg.Server.RateLimit.RequestsPerHour != DefaultConfig().Server.RateLimit.RequestsPerHour {
		t.Errorf("Expected default requests_per_hour, got %d", cfg.Server.RateLimit.RequestsPerHour)
	}
	if cfg.Estimator.Threshold != 0.75 || cfg.Estimator.MaxIterations != 500 || cfg.Estimator.Seed != 7 {
		t.Errorf("unexpected estimator settings %+v", cfg.Estimator)
	}
	if cfg.Session.DefaultID != "main" {
		t.Errorf("Expected default session 'main', got %s", cfg.Session.DefaultID)
	}
}

// TestLoadWithJSONFile tests that JSON configuration files are accepted.
func TestLoadWithJSONFile(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "pitchmap.json",
		`{"estimator": {"threshold": 2.5}, "output": {"format": "json"}}`)

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Estimator.Threshold != 2.5 {
		t.Errorf("Expected threshold 2.5, got %v", cfg.Estimator.Threshold)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected output format json, got %s", cfg.Output.Format)
	}
}

// TestLoadWithInvalidYAMLFile tests loading from an invalid YAML file.
func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "pitchmap.yaml", "server:\n  port: [unclosed\n")

	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML")
	}
}

// TestLoadWithNonExistentFile tests loading from a non-existent file.
func TestLoadWithNonExistentFile(t *testing.T) {
	if _, err := newTestLoader().LoadWithFile("/nonexistent/pitchmap.yaml"); err == nil {
		t.Error("LoadWithFile() expected error for non-existent file")
	}
}

// TestLoadWithValidationFailure tests that invalid values are rejected.
func TestLoadWithValidationFailure(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "pitchmap.yaml", "estimator:\n  confidence: 1.5\n")

	if _, err := newTestLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected validation error")
	}
}

// TestEnvironmentVariableOverride tests environment variables override file values.
func TestEnvironmentVariableOverride(t *testing.T) {
	configFile := writeConfig(t, t.TempDir(), "pitchmap.yaml", "log_level: warn\nserver:\n  port: 9090\n")

	t.Setenv("PITCHMAP_LOG_LEVEL", "error")
	t.Setenv("PITCHMAP_SERVER_PORT", "7070")
	t.Setenv("PITCHMAP_SERVER_RATE_LIMIT_ENABLED", "true")
	t.Setenv("PITCHMAP_ESTIMATOR_MAX_ITERATIONS", "50")
	t.Setenv("PITCHMAP_SESSION_DEFAULT_ID", "broadcast")

	cfg, err := newTestLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected env log level 'error', got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.Port)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("Expected rate limiting enabled from env")
	}
	if cfg.Estimator.MaxIterations != 50 {
		t.Errorf("Expected env max_iterations 50, got %d", cfg.Estimator.MaxIterations)
	}
	if cfg.Session.DefaultID != "broadcast" {
		t.Errorf("Expected env default session 'broadcast', got %s", cfg.Session.DefaultID)
	}
}

// TestGetConfigSearchPaths tests the configuration search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	paths := GetConfigSearchPaths()
	if len(paths) == 0 || paths[0] != "." {
		t.Fatalf("Expected current directory first, got %v", paths)
	}
	if !contains(paths, filepath.Join("/xdg", "pitchmap")) {
		t.Errorf("Expected XDG path in %v", paths)
	}
	if paths[len(paths)-1] != "/etc/pitchmap" {
		t.Errorf("Expected /etc/pitchmap last, got %v", paths)
	}
}
