// Package config loads tmplledger settings from a YAML file and the
// environment. Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverPG     = "pg"
	DriverMemory = "memory"
)

// Environment variables read by FromEnv.
const (
	EnvDB        = "TMPLLEDGER_DB"
	EnvDriver    = "TMPLLEDGER_DRIVER"
	EnvLogLevel  = "TMPLLEDGER_LOG_LEVEL"
	EnvCacheSize = "TMPLLEDGER_CACHE_SIZE"
)

// Config holds every setting the CLI needs to open a ledger.
type Config struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	// CacheSize is the number of active records kept in memory.
	// Zero disables the cache.
	CacheSize int `yaml:"cache_size"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Driver:   DriverSQLite,
		LogLevel: "warn",
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// FromEnv overrides cfg with any variables lookup finds.
// Pass os.LookupEnv outside tests.
func (cfg Config) FromEnv(lookup func(string) (string, bool)) (Config, error) {
	if v, ok := lookup(EnvDriver); ok && v != "" {
		cfg.Driver = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvCacheSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvCacheSize, err)
		}
		cfg.CacheSize = n
	}
	return cfg, nil
}

// Validate reports settings that cannot open a store.
func (cfg Config) Validate() error {
	switch cfg.Driver {
	case DriverSQLite, DriverPG:
		if cfg.DSN == "" {
			return fmt.Errorf("driver %q requires a database (--db or --dsn)", cfg.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q: must be one of sqlite, pg, memory", cfg.Driver)
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", cfg.CacheSize)
	}
	return nil
}
