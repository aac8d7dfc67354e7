// Package config loads CLI configuration from an optional TOML file with
// IXFORGE_* environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// Config holds runtime settings shared by the CLI commands.
type Config struct {
	StorageDriver string `toml:"storage_driver"` // memory|sqlite|postgres
	SQLitePath    string `toml:"sqlite_path"`
	PostgresDSN   string `toml:"postgres_dsn"`
	BlobDriver    string `toml:"blob_driver"` // fs|s3|memory
	BlobRoot      string `toml:"blob_root"`
	LogLevel      string `toml:"log_level"`
	Quiet         bool   `toml:"quiet"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorageDriver: "sqlite",
		SQLitePath:    "ixforge.db",
		BlobDriver:    "fs",
		BlobRoot:      "artifacts",
		LogLevel:      "info",
	}
}

// Load reads path when non-empty (the file must exist), then applies
// environment overrides on top of the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Environment overrides, one variable per field:
//
//	IXFORGE_STORAGE_DRIVER, IXFORGE_SQLITE_PATH, IXFORGE_POSTGRES_DSN,
//	IXFORGE_BLOB_DRIVER, IXFORGE_BLOB_FS_ROOT, IXFORGE_LOG_LEVEL,
//	IXFORGE_QUIET
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("IXFORGE_STORAGE_DRIVER"); ok {
		c.StorageDriver = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_SQLITE_PATH"); ok {
		c.SQLitePath = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_POSTGRES_DSN"); ok {
		c.PostgresDSN = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_BLOB_DRIVER"); ok {
		c.BlobDriver = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_BLOB_FS_ROOT"); ok {
		c.BlobRoot = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_LOG_LEVEL"); ok {
		c.LogLevel = cast.ToString(v)
	}
	if v, ok := os.LookupEnv("IXFORGE_QUIET"); ok {
		c.Quiet = cast.ToBool(v)
	}
}

// Validate rejects unknown driver names early, before stores are opened.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	switch c.BlobDriver {
	case "fs", "s3", "memory":
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if c.StorageDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("postgres driver requires a DSN")
	}
	return nil
}
