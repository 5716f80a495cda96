// Package config loads the yaml configuration file, applying defaults
// and environment overrides (GEMINI_API_KEY, MYVE_DATA_DIR).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"myve/internal/advisory"
)

// DataConfig locates the per-user source documents.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig bounds the response cache. Durations are strings parsed
// with time.ParseDuration.
type CacheConfig struct {
	TTL           string `yaml:"ttl"`
	MaxEntries    int    `yaml:"max_entries"`
	SweepInterval string `yaml:"sweep_interval"`
}

// StoreConfig configures the advice log.
type StoreConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Config is the full application configuration.
type Config struct {
	Advisory advisory.Config `yaml:"advisory"`
	Data     DataConfig      `yaml:"data"`
	Cache    CacheConfig     `yaml:"cache"`
	Store    StoreConfig     `yaml:"store"`
	Server   ServerConfig    `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Advisory: advisory.DefaultConfig(),
		Data:     DataConfig{Dir: "data"},
		Cache: CacheConfig{
			TTL:           "10m",
			MaxEntries:    512,
			SweepInterval: "5m",
		},
		Store: StoreConfig{
			Path:      "data/advice.db",
			Retention: "720h", // 30 days
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
	}
}

// Load reads path over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Advisory.APIKey = key
	}
	if dir := os.Getenv("MYVE_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// CacheTTL returns the parsed cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 10*time.Minute)
}

// CacheSweepInterval returns the parsed sweep period.
func (c Config) CacheSweepInterval() time.Duration {
	return parseDuration(c.Cache.SweepInterval, 5*time.Minute)
}

// StoreRetention returns how long advice history is kept.
func (c Config) StoreRetention() time.Duration {
	return parseDuration(c.Store.Retention, 30*24*time.Hour)
}

// ShutdownTimeout returns the graceful-shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}
