package cache

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/fishinsevens/Jassistant/errors"
)

// Duration wraps time.Duration so configuration files and environment
// variables can use duration strings ("1h", "5m", "30s").
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler, used by the
// environment override layer.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.WrapInvalid(err, "cache", "UnmarshalText", "parse duration")
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err == nil {
		return d.UnmarshalText([]byte(str))
	}

	var nsec int64
	if err := node.Decode(&nsec); err != nil {
		return errors.WrapInvalid(err, "cache", "UnmarshalYAML",
			"duration must be a string like \"1h\" or integer nanoseconds")
	}
	*d = Duration(nsec)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// JanitorConfig configures the background maintenance loop that sweeps
// expired disk entries.
type JanitorConfig struct {
	// Enabled turns the janitor on. When off, expired entries are only
	// removed lazily by Get or by an explicit cleanup call.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Interval is how often the janitor sweeps.
	Interval Duration `yaml:"interval" env:"INTERVAL"`

	// SweepsPerSecond caps how fast sweep cycles may run, so maintenance
	// cannot monopolize disk I/O when the interval is short.
	SweepsPerSecond float64 `yaml:"sweeps_per_second" env:"SWEEPS_PER_SECOND"`
}

// Config contains the configuration for the cache registry and every
// named instance it owns.
type Config struct {
	// Dir is the root directory for disk-backed caches. Each disk-backed
	// instance gets its own subdirectory; no two instances share one.
	Dir string `yaml:"dir" env:"JASSISTANT_CACHE_DIR"`

	// MemoryCapacity bounds the generic memory tier (entries).
	MemoryCapacity int `yaml:"memory_capacity" env:"JASSISTANT_CACHE_MEMORY_CAPACITY"`

	// MaxAge is the expiry age for the generic disk tier.
	MaxAge Duration `yaml:"max_age" env:"JASSISTANT_CACHE_MAX_AGE"`

	// ArtifactMaxAge is the expiry age for the artifact cache, which
	// holds large derived content such as processed images.
	ArtifactMaxAge Duration `yaml:"artifact_max_age" env:"JASSISTANT_CACHE_ARTIFACT_MAX_AGE"`

	// SnapshotCapacity bounds the memory-only snapshot cache used for
	// small, frequently changing configuration-like data.
	SnapshotCapacity int `yaml:"snapshot_capacity" env:"JASSISTANT_CACHE_SNAPSHOT_CAPACITY"`

	// Compression enables zstd compression of artifact blobs on disk.
	Compression bool `yaml:"compression" env:"JASSISTANT_CACHE_COMPRESSION"`

	// Janitor configures background expiry sweeps.
	Janitor JanitorConfig `yaml:"janitor" envPrefix:"JASSISTANT_CACHE_JANITOR_"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Dir:              "data/cache",
		MemoryCapacity:   1000,
		MaxAge:           Duration(1 * time.Hour),
		ArtifactMaxAge:   Duration(24 * time.Hour),
		SnapshotCapacity: 100,
		Compression:      true,
		Janitor: JanitorConfig{
			Enabled:         true,
			Interval:        Duration(30 * time.Minute),
			SweepsPerSecond: 1,
		},
	}
}

// Validate checks the configuration. Misconfiguration is rejected here,
// at construction time, never surfaced as a runtime cache error.
func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			"dir cannot be empty")
	}
	if c.MemoryCapacity <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("memory_capacity must be positive, got %d", c.MemoryCapacity))
	}
	if c.MaxAge <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("max_age must be positive, got %v", c.MaxAge))
	}
	if c.ArtifactMaxAge <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("artifact_max_age must be positive, got %v", c.ArtifactMaxAge))
	}
	if c.SnapshotCapacity <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("snapshot_capacity must be positive, got %d", c.SnapshotCapacity))
	}
	if c.Janitor.Enabled {
		if c.Janitor.Interval <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("janitor interval must be positive, got %v", c.Janitor.Interval))
		}
		if c.Janitor.SweepsPerSecond <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("janitor sweeps_per_second must be positive, got %v", c.Janitor.SweepsPerSecond))
		}
	}
	return nil
}

// LoadConfig builds a Config from defaults, an optional YAML file, and
// environment overrides, in that precedence order (environment wins).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WrapInvalid(err, "cache", "LoadConfig", "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.WrapInvalid(err, "cache", "LoadConfig", "parse config file")
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.WrapInvalid(err, "cache", "LoadConfig", "apply environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
