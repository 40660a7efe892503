package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Server.ListenAddr)
	assert.GreaterOrEqual(t, cfg.Search.DefaultWorkers, 1)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.ListenAddr, cfg.Server.ListenAddr)
}

func TestLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Server.ListenAddr = "127.0.0.1:9000"
	cfg.Server.MaxWorkers = 12
	cfg.Search.DefaultWorkers = 6
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", loaded.Server.ListenAddr)
	assert.Equal(t, 12, loaded.Server.MaxWorkers)
	assert.Equal(t, 6, loaded.Search.DefaultWorkers)
	assert.Equal(t, "debug", loaded.Logging.Level)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HASHRACE_LISTEN_ADDR", "127.0.0.1:7777")
	t.Setenv("HASHRACE_MAX_WORKERS", "32")
	t.Setenv("HASHRACE_DEFAULT_WORKERS", "4")
	t.Setenv("HASHRACE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.ListenAddr)
	assert.Equal(t, 32, cfg.Server.MaxWorkers)
	assert.Equal(t, 4, cfg.Search.DefaultWorkers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("HASHRACE_MAX_WORKERS", "many")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HASHRACE_MAX_WORKERS")
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"zero max workers", func(c *Config) { c.Server.MaxWorkers = 0 }},
		{"zero max upper bound", func(c *Config) { c.Server.MaxUpperBound = 0 }},
		{"zero default workers", func(c *Config) { c.Search.DefaultWorkers = 0 }},
		{"defaults above max", func(c *Config) { c.Search.DefaultWorkers = c.Server.MaxWorkers + 1 }},
		{"tiny progress interval", func(c *Config) { c.Search.ProgressIntervalMS = 1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
