package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishinsevens/Jassistant/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/cache", cfg.Dir)
	assert.Equal(t, 1000, cfg.MemoryCapacity)
	assert.Equal(t, time.Hour, cfg.MaxAge.Std())
	assert.Equal(t, 24*time.Hour, cfg.ArtifactMaxAge.Std())
	assert.True(t, cfg.Compression)
	assert.True(t, cfg.Janitor.Enabled)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dir: /var/lib/jassistant/cache
memory_capacity: 250
max_age: 15m
artifact_max_age: 48h
snapshot_capacity: 10
compression: false
janitor:
  enabled: true
  interval: 5m
  sweeps_per_second: 0.5
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/jassistant/cache", cfg.Dir)
	assert.Equal(t, 250, cfg.MemoryCapacity)
	assert.Equal(t, 15*time.Minute, cfg.MaxAge.Std())
	assert.Equal(t, 48*time.Hour, cfg.ArtifactMaxAge.Std())
	assert.Equal(t, 10, cfg.SnapshotCapacity)
	assert.False(t, cfg.Compression)
	assert.Equal(t, 5*time.Minute, cfg.Janitor.Interval.Std())
	assert.Equal(t, 0.5, cfg.Janitor.SweepsPerSecond)
}

func TestLoadConfigPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory_capacity: 42\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.MemoryCapacity)
	assert.Equal(t, DefaultConfig().Dir, cfg.Dir)
	assert.Equal(t, DefaultConfig().MaxAge, cfg.MaxAge)
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory_capacity: 42\nmax_age: 15m\n"), 0o644))

	t.Setenv("JASSISTANT_CACHE_MEMORY_CAPACITY", "7")
	t.Setenv("JASSISTANT_CACHE_MAX_AGE", "2h")
	t.Setenv("JASSISTANT_CACHE_JANITOR_ENABLED", "false")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MemoryCapacity)
	assert.Equal(t, 2*time.Hour, cfg.MaxAge.Std())
	assert.False(t, cfg.Janitor.Enabled)
}

func TestDurationUnmarshalYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")

	// Integer values are read as nanoseconds, matching time.Duration.
	require.NoError(t, os.WriteFile(path, []byte("max_age: 3600000000000\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.MaxAge.Std())

	require.NoError(t, os.WriteFile(path, []byte("max_age: [not, a, duration]\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Std())
	assert.Equal(t, "1m30s", d.String())

	err := d.UnmarshalText([]byte("ninety seconds"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dir", func(c *Config) { c.Dir = "" }},
		{"zero memory capacity", func(c *Config) { c.MemoryCapacity = 0 }},
		{"negative memory capacity", func(c *Config) { c.MemoryCapacity = -5 }},
		{"zero max age", func(c *Config) { c.MaxAge = 0 }},
		{"negative artifact max age", func(c *Config) { c.ArtifactMaxAge = Duration(-time.Hour) }},
		{"zero snapshot capacity", func(c *Config) { c.SnapshotCapacity = 0 }},
		{"janitor zero interval", func(c *Config) { c.Janitor.Interval = 0 }},
		{"janitor zero sweep rate", func(c *Config) { c.Janitor.SweepsPerSecond = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestConfigValidateIgnoresJanitorWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Janitor.Enabled = false
	cfg.Janitor.Interval = 0
	cfg.Janitor.SweepsPerSecond = 0

	require.NoError(t, cfg.Validate())
}
