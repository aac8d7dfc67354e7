package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestValidateCommandAddOnly(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "memory")
	path := writeSpec(t, "[add]\ntechnology = [\"gas_ppl\"]\n")

	root := newRootCmd()
	root.SetArgs([]string{"validate", "--spec", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateCommandRejectsMalformedSpec(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "memory")
	path := writeSpec(t, "[add]\ntechnology = [42]\n")

	root := newRootCmd()
	root.SetArgs([]string{"validate", "--spec", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected malformed spec to fail validation")
	}
}

func TestApplyCommandDryRun(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "memory")
	t.Setenv("IXFORGE_BLOB_DRIVER", "memory")
	path := writeSpec(t, "[add]\ntechnology = [\"gas_ppl\"]\nunit = [\"GWa\"]\n")

	root := newRootCmd()
	root.SetArgs([]string{"apply", "--spec", path, "--dry-run", "--scenario", "baseline"})
	if err := root.Execute(); err != nil {
		t.Fatalf("apply dry-run: %v", err)
	}
}

func TestRootRejectsBadConfig(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "oracle")
	root := newRootCmd()
	root.SetArgs([]string{"validate", "--spec", "ignored.toml"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected config validation failure")
	}
}
