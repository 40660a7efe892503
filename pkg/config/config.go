// Package config provides configuration management for hashrace: defaults,
// an optional JSON configuration file, HASHRACE_* environment variable
// overrides, and validation with helpful error messages.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (highest priority)
//  2. Configuration file (JSON format)
//  3. Default values (lowest priority)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/hashrace/hashrace/pkg/logging"
)

// Config represents the complete hashrace configuration.
type Config struct {
	// Server Configuration
	Server ServerConfig `json:"server"`

	// Search Configuration
	Search SearchConfig `json:"search"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	// MaxWorkers caps the worker count a single request may ask for.
	MaxWorkers int `json:"max_workers"`
	// MaxUpperBound caps the keyspace size a single request may ask for.
	MaxUpperBound uint64 `json:"max_upper_bound"`
}

// SearchConfig holds search pool configuration
type SearchConfig struct {
	// DefaultWorkers is used when a request does not specify a worker
	// count. Defaults to the number of CPUs.
	DefaultWorkers int `json:"default_workers"`
	// ProgressIntervalMS is how often progress is reported, in milliseconds.
	ProgressIntervalMS int `json:"progress_interval_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:    ":8440",
			MaxWorkers:    4 * runtime.NumCPU(),
			MaxUpperBound: 1 << 44,
		},
		Search: SearchConfig{
			DefaultWorkers:     runtime.NumCPU(),
			ProgressIntervalMS: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the given file path, falling back to
// defaults when the path is empty or the file does not exist, and applying
// environment variable overrides on top.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; defaults plus environment apply.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies HASHRACE_* environment variables over the
// current values.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("HASHRACE_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("HASHRACE_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HASHRACE_MAX_WORKERS: %w", err)
		}
		c.Server.MaxWorkers = n
	}
	if v := os.Getenv("HASHRACE_MAX_UPPER_BOUND"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HASHRACE_MAX_UPPER_BOUND: %w", err)
		}
		c.Server.MaxUpperBound = n
	}
	if v := os.Getenv("HASHRACE_DEFAULT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HASHRACE_DEFAULT_WORKERS: %w", err)
		}
		c.Search.DefaultWorkers = n
	}
	if v := os.Getenv("HASHRACE_PROGRESS_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HASHRACE_PROGRESS_INTERVAL_MS: %w", err)
		}
		c.Search.ProgressIntervalMS = n
	}
	if v := os.Getenv("HASHRACE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HASHRACE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("HASHRACE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.MaxWorkers < 1 {
		return fmt.Errorf("server.max_workers must be at least 1, got %d", c.Server.MaxWorkers)
	}
	if c.Server.MaxUpperBound == 0 {
		return fmt.Errorf("server.max_upper_bound must be greater than 0")
	}
	if c.Search.DefaultWorkers < 1 {
		return fmt.Errorf("search.default_workers must be at least 1, got %d", c.Search.DefaultWorkers)
	}
	if c.Search.DefaultWorkers > c.Server.MaxWorkers {
		return fmt.Errorf("search.default_workers (%d) exceeds server.max_workers (%d)",
			c.Search.DefaultWorkers, c.Server.MaxWorkers)
	}
	if c.Search.ProgressIntervalMS < 10 {
		return fmt.Errorf("search.progress_interval_ms must be at least 10, got %d", c.Search.ProgressIntervalMS)
	}
	if _, err := logging.ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := logging.ParseLogFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	return nil
}

// SaveToFile writes the configuration to the given path as indented JSON.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
