package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.StorageDriver != "sqlite" || cfg.BlobDriver != "fs" || cfg.LogLevel != "info" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ixforge.toml")
	body := `
storage_driver = "memory"
blob_driver = "memory"
log_level = "debug"
quiet = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != "memory" || cfg.LogLevel != "debug" || !cfg.Quiet {
		t.Fatalf("cfg = %+v", cfg)
	}
	// Unset fields keep their defaults.
	if cfg.SQLitePath != "ixforge.db" {
		t.Fatalf("sqlite path = %q", cfg.SQLitePath)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ixforge.toml")
	if err := os.WriteFile(path, []byte(`storage_driver = "sqlite"`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("IXFORGE_STORAGE_DRIVER", "postgres")
	t.Setenv("IXFORGE_POSTGRES_DSN", "postgres://example/db")
	t.Setenv("IXFORGE_QUIET", "1")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != "postgres" || cfg.PostgresDSN != "postgres://example/db" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if !cfg.Quiet {
		t.Fatalf("quiet override not applied")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestValidateRejectsBadDrivers(t *testing.T) {
	cfg := Default()
	cfg.StorageDriver = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected storage driver error")
	}

	cfg = Default()
	cfg.BlobDriver = "ftp"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected blob driver error")
	}

	cfg = Default()
	cfg.StorageDriver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing DSN error")
	}
}
