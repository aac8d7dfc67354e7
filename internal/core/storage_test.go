package core

import (
	"path/filepath"
	"testing"

	"ixforge/internal/infra/persistence/memory"
	"ixforge/internal/infra/persistence/sqlite"
)

func TestOpenScenarioStoreMemory(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "memory")
	store, err := OpenScenarioStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenScenarioStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.db")
	t.Setenv("IXFORGE_STORAGE_DRIVER", "sqlite")
	t.Setenv("IXFORGE_SQLITE_PATH", path)
	store, err := OpenScenarioStore()
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Path() != path {
		t.Fatalf("path = %q", s.Path())
	}
}

func TestOpenScenarioStoreUnknownDriver(t *testing.T) {
	t.Setenv("IXFORGE_STORAGE_DRIVER", "oracle")
	if _, err := OpenScenarioStore(); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
