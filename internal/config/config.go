// Package config loads the praxis configuration file
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/phillarmonic/praxis/internal/lexer"
	"github.com/phillarmonic/praxis/internal/maintenance"
	"github.com/phillarmonic/praxis/internal/scope"
	"github.com/phillarmonic/praxis/internal/store"
)

// Domain: Configuration Management
// This file contains logic for config discovery, defaults and validation

// DefaultLocations are searched in order when no file is given
var DefaultLocations = []string{
	"praxis.yml",
	"praxis.yaml",
	"praxis.toml",
	".praxis/config.yml",
	".praxis/config.toml",
}

// Config is the praxis configuration
type Config struct {
	Storage       StorageConfig     `yaml:"storage" toml:"storage"`
	Engine        EngineConfig      `yaml:"engine" toml:"engine"`
	Log           LogConfig         `yaml:"log" toml:"log"`
	Maintenance   MaintenanceConfig `yaml:"maintenance" toml:"maintenance"`
	Serve         ServeConfig       `yaml:"serve" toml:"serve"`
	ServerFixture string            `yaml:"server_fixture" toml:"server_fixture"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `yaml:"-" toml:"-"`
}

// StorageConfig selects the global variable store
type StorageConfig struct {
	Backend   string `yaml:"backend" toml:"backend"`
	Path      string `yaml:"path" toml:"path"`
	Retention string `yaml:"retention" toml:"retention"`
}

// EngineConfig tunes script execution
type EngineConfig struct {
	MaxIterations     int    `yaml:"max_iterations" toml:"max_iterations"`
	CommentMarker     string `yaml:"comment_marker" toml:"comment_marker"`
	DefaultPermission string `yaml:"default_permission" toml:"default_permission"`
	Verbosity         string `yaml:"verbosity" toml:"verbosity"`
}

// LogConfig configures commonlog
type LogConfig struct {
	Verbosity int    `yaml:"verbosity" toml:"verbosity"`
	File      string `yaml:"file" toml:"file"`
}

// MaintenanceConfig schedules store compaction
type MaintenanceConfig struct {
	Enabled         bool   `yaml:"enabled" toml:"enabled"`
	CompactInterval string `yaml:"compact_interval" toml:"compact_interval"`
}

// ServeConfig configures the HTTP trigger host
type ServeConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = store.BackendSolo
	}
	if c.Engine.MaxIterations == 0 {
		c.Engine.MaxIterations = 1000
	}
	if c.Engine.CommentMarker == "" {
		c.Engine.CommentMarker = lexer.DefaultCommentMarker
	}
	if c.Engine.DefaultPermission == "" {
		c.Engine.DefaultPermission = scope.Owner.String()
	}
	if c.Engine.Verbosity == "" {
		c.Engine.Verbosity = scope.Normal.String()
	}
	if c.Maintenance.CompactInterval == "" {
		c.Maintenance.CompactInterval = maintenance.DefaultInterval.String()
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = "127.0.0.1:8390"
	}
}

// Find returns the configuration file to use: path when given, otherwise
// the first existing default location, or "" when there is none
func Find(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("specified config '%s' not found", path)
		}
		return path, nil
	}
	for _, location := range DefaultLocations {
		if info, err := os.Stat(location); err == nil && !info.IsDir() {
			return location, nil
		}
	}
	return "", nil
}

// Load reads and validates the configuration. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	found, err := Find(path)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data, isTOML(found))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", found, err)
	}
	cfg.Path = found
	return cfg, nil
}

// Parse decodes YAML, or TOML when asTOML is set, and applies defaults
func Parse(data []byte, asTOML bool) (*Config, error) {
	var cfg Config
	if asTOML {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot fix
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case store.BackendMemory, store.BackendSolo, store.BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend '%s' (expected memory, solo or sqlite)", c.Storage.Backend)
	}
	if _, err := c.Retention(); err != nil {
		return err
	}
	if _, err := c.CompactInterval(); err != nil {
		return err
	}
	if _, err := c.Permission(); err != nil {
		return err
	}
	if _, err := c.Verbosity(); err != nil {
		return err
	}
	if c.Engine.MaxIterations < 0 {
		return fmt.Errorf("engine.max_iterations cannot be negative")
	}
	return nil
}

// Retention is the store retention, zero for the backend default
func (c *Config) Retention() (time.Duration, error) {
	if c.Storage.Retention == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Storage.Retention)
	if err != nil {
		return 0, fmt.Errorf("invalid storage.retention: %w", err)
	}
	return d, nil
}

// CompactInterval is the maintenance interval
func (c *Config) CompactInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Maintenance.CompactInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid maintenance.compact_interval: %w", err)
	}
	return d, nil
}

// Permission is the level scripts run at unless overridden
func (c *Config) Permission() (scope.Permission, error) {
	return scope.ParsePermission(c.Engine.DefaultPermission)
}

// Verbosity is the default report verbosity
func (c *Config) Verbosity() (scope.Verbosity, error) {
	return scope.ParseVerbosity(c.Engine.Verbosity)
}

// StoreOptions converts the storage section for store.Open
func (c *Config) StoreOptions() (store.Options, error) {
	retention, err := c.Retention()
	if err != nil {
		return store.Options{}, err
	}
	return store.Options{Backend: c.Storage.Backend, Path: c.Storage.Path, Retention: retention}, nil
}

// Encode renders the configuration in the format matching path
func (c *Config) Encode(path string) ([]byte, error) {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Initialize writes a configuration with every default spelled out
func Initialize(path string) error {
	if path == "" {
		path = DefaultLocations[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config '%s' already exists", path)
	}

	data, err := Default().Encode(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
