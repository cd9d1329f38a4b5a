// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for depot.
type Config struct {
	// Storage configures where depot keeps its data.
	Storage StorageConfig `yaml:"storage"`

	// Scan configures the directories the content scan walks.
	Scan ScanConfig `yaml:"scan"`

	// Cache configures the registered content cache.
	Cache CacheConfig `yaml:"cache"`

	// Compat points at the compatibility list.
	Compat CompatConfig `yaml:"compat"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// StorageConfig configures directory locations. Only Root is
// required; the other fields default to locations under it.
type StorageConfig struct {
	// Root is the base directory for depot data: the registered
	// cache, save data, and mods live under it unless overridden.
	Root string `yaml:"root"`

	// SaveRoot overrides where save data lives. Save directories are
	// derived as <SaveRoot>/save/<title>/<user>/.
	SaveRoot string `yaml:"save_root"`

	// LoadDir overrides where mods are read from, one directory per
	// title id.
	LoadDir string `yaml:"load_dir"`
}

// ScanDir is one directory the scan walks.
type ScanDir struct {
	Path string `yaml:"path"`

	// Deep scans subdirectories too.
	Deep bool `yaml:"deep"`
}

// ScanConfig configures the content scan.
type ScanConfig struct {
	Dirs []ScanDir `yaml:"dirs"`
}

// CacheConfig configures the registered content cache.
type CacheConfig struct {
	// PoolSize is the SQLite connection pool size for the cache
	// index.
	PoolSize int `yaml:"pool_size"`

	// Compression selects at-rest compression for installed content:
	// "none", "zstd", or "lz4".
	Compression string `yaml:"compression"`
}

// CompatConfig points at the compatibility list document.
type CompatConfig struct {
	// Path is a JSONC file mapping title ids to ratings. Empty means
	// no list; everything reports as untested.
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level emitted: "debug", "info", "warn",
	// or "error".
	Level string `yaml:"level"`
}

// compressionValues are the accepted cache.compression spellings. The
// empty string means no compression, matching the tag parser.
var compressionValues = []string{"", "none", "zstd", "lz4"}

var logLevels = []string{"", "debug", "info", "warn", "error"}

// Default returns the out-of-the-box configuration: everything lives
// under ~/.local/share/depot, with zstd compression and info logging.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Root: filepath.Join(homeDir, ".local", "share", "depot"),
		},
		Cache: CacheConfig{
			PoolSize:    4,
			Compression: "zstd",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by the DEPOT_CONFIG
// environment variable. When the variable is unset the defaults are
// returned (with environment overrides and expansion applied), so a
// fresh install works without writing a config file.
func Load() (*Config, error) {
	if path := os.Getenv("DEPOT_CONFIG"); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	cfg.applyEnvOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path. Decoding is
// strict: unknown keys are errors, so typos fail loudly instead of
// silently using defaults. Environment overrides and variable
// expansion are applied after the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// applyEnvOverrides applies DEPOT_* environment variables over the
// scalar fields. Set variables win over file values.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		name   string
		target *string
	}{
		{"DEPOT_STORAGE_ROOT", &c.Storage.Root},
		{"DEPOT_SAVE_ROOT", &c.Storage.SaveRoot},
		{"DEPOT_LOAD_DIR", &c.Storage.LoadDir},
		{"DEPOT_COMPAT_PATH", &c.Compat.Path},
		{"DEPOT_CACHE_COMPRESSION", &c.Cache.Compression},
		{"DEPOT_LOG_LEVEL", &c.Log.Level},
	}
	for _, override := range overrides {
		if value := os.Getenv(override.name); value != "" {
			*override.target = value
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DEPOT_ROOT": c.Storage.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Storage.Root = expandVars(c.Storage.Root, vars)
	vars["DEPOT_ROOT"] = c.Storage.Root // Update for dependent paths.

	c.Storage.SaveRoot = expandVars(c.Storage.SaveRoot, vars)
	c.Storage.LoadDir = expandVars(c.Storage.LoadDir, vars)
	c.Compat.Path = expandVars(c.Compat.Path, vars)
	for i := range c.Scan.Dirs {
		c.Scan.Dirs[i].Path = expandVars(c.Scan.Dirs[i].Path, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.Root == "" {
		errs = append(errs, fmt.Errorf("storage.root is required"))
	}
	if c.Cache.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("cache.pool_size must be at least 1"))
	}
	if !slices.Contains(compressionValues, c.Cache.Compression) {
		errs = append(errs, fmt.Errorf("cache.compression must be one of: none, zstd, lz4"))
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}
	for i, dir := range c.Scan.Dirs {
		if dir.Path == "" {
			errs = append(errs, fmt.Errorf("scan.dirs[%d].path is required", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CacheDir returns the registered cache directory.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Storage.Root, "registered")
}

// SaveRoot returns the effective save-data root.
func (c *Config) SaveRoot() string {
	if c.Storage.SaveRoot != "" {
		return c.Storage.SaveRoot
	}
	return c.Storage.Root
}

// LoadDir returns the effective mod directory.
func (c *Config) LoadDir() string {
	if c.Storage.LoadDir != "" {
		return c.Storage.LoadDir
	}
	return filepath.Join(c.Storage.Root, "load")
}

// SlogLevel parses the configured log level. An empty level means
// info.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
}

// EnsurePaths creates the configured directory layout.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Storage.Root,
		c.CacheDir(),
		c.SaveRoot(),
		c.LoadDir(),
	}
	for _, path := range paths {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
