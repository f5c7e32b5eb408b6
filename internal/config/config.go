// Package config provides layered configuration loading.
// Precedence: flags > env > .env file > local > global > system > defaults.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	BaseURL string `json:"base_url"`

	// Cache settings
	CacheDir     string `json:"cache_dir"`
	CacheEnabled bool   `json:"cache_enabled"`
	CacheTTL     Millis `json:"cache_ttl_ms"`

	// Connectivity settings
	HealthPath    string `json:"health_path"`
	ProbeInterval Millis `json:"probe_interval_ms"`

	// Output settings
	Format string `json:"format"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Millis is a duration persisted as integer milliseconds.
type Millis int64

// Duration converts to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	BaseURL  string
	CacheDir string
	NoCache  bool
	Format   string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:       "https://api.ajopay.app",
		CacheDir:      filepath.Join(userCacheDir(), "ajo"),
		CacheEnabled:  true,
		CacheTTL:      Millis((5 * time.Minute).Milliseconds()),
		HealthPath:    "/health",
		ProbeInterval: Millis((30 * time.Second).Milliseconds()),
		Format:        "auto",
		Sources:       make(map[string]string),
	}
}

func userCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache")
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// GlobalConfigDir returns the directory holding global config and the
// credential file fallback.
func GlobalConfigDir() string {
	return filepath.Join(userConfigDir(), "ajo")
}

func systemConfigPath() string { return "/etc/ajo/config.json" }
func globalConfigPath() string { return filepath.Join(GlobalConfigDir(), "config.json") }
func localConfigPath() string  { return filepath.Join(".ajo", "config.json") }

// Load loads configuration from all sources with proper precedence.
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, globalConfigPath(), SourceGlobal)
	loadFromFile(cfg, localConfigPath(), SourceLocal)

	// Project-local .env, if present, feeds the env layer.
	_ = godotenv.Load()

	loadFromEnv(cfg)
	applyFlags(cfg, overrides)

	return cfg, nil
}

// fileConfig uses pointers so absent fields don't clobber lower layers.
type fileConfig struct {
	BaseURL       *string `json:"base_url"`
	CacheDir      *string `json:"cache_dir"`
	CacheEnabled  *bool   `json:"cache_enabled"`
	CacheTTL      *Millis `json:"cache_ttl_ms"`
	HealthPath    *string `json:"health_path"`
	ProbeInterval *Millis `json:"probe_interval_ms"`
	Format        *string `json:"format"`
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return
	}

	set := func(field string) { cfg.Sources[field] = string(source) }
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
		set("base_url")
	}
	if fc.CacheDir != nil {
		cfg.CacheDir = *fc.CacheDir
		set("cache_dir")
	}
	if fc.CacheEnabled != nil {
		cfg.CacheEnabled = *fc.CacheEnabled
		set("cache_enabled")
	}
	if fc.CacheTTL != nil {
		cfg.CacheTTL = *fc.CacheTTL
		set("cache_ttl_ms")
	}
	if fc.HealthPath != nil {
		cfg.HealthPath = *fc.HealthPath
		set("health_path")
	}
	if fc.ProbeInterval != nil {
		cfg.ProbeInterval = *fc.ProbeInterval
		set("probe_interval_ms")
	}
	if fc.Format != nil {
		cfg.Format = *fc.Format
		set("format")
	}
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("AJO_BASE_URL"); v != "" {
		cfg.BaseURL = v
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("AJO_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
		cfg.Sources["cache_dir"] = string(SourceEnv)
	}
	if v := os.Getenv("AJO_NO_CACHE"); v != "" {
		cfg.CacheEnabled = false
		cfg.Sources["cache_enabled"] = string(SourceEnv)
	}
	if v := os.Getenv("AJO_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
}

func applyFlags(cfg *Config, overrides FlagOverrides) {
	if overrides.BaseURL != "" {
		cfg.BaseURL = overrides.BaseURL
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if overrides.CacheDir != "" {
		cfg.CacheDir = overrides.CacheDir
		cfg.Sources["cache_dir"] = string(SourceFlag)
	}
	if overrides.NoCache {
		cfg.CacheEnabled = false
		cfg.Sources["cache_enabled"] = string(SourceFlag)
	}
	if overrides.Format != "" {
		cfg.Format = overrides.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
}
