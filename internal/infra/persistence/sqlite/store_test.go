package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"ixforge/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	store.InitSet("technology", "coal_ppl")
	store.InitPar("output",
		map[string]string{"technology": "technology"},
		domain.ParRow{Keys: map[string]string{"technology": "coal_ppl"}, Value: 1.0, Unit: "GWa"},
	)
	if err := store.AddUnit("GWa", "gigawatt year"); err != nil {
		t.Fatalf("add unit: %v", err)
	}
	if err := store.CheckOut(); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := store.AddSetElement("technology", "gas_ppl"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Commit("extend technology"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := reloaded.SetElements("technology"); len(got) != 2 {
		t.Fatalf("reloaded elements = %v", got)
	}
	rows, err := reloaded.ParData("output", nil)
	if err != nil {
		t.Fatalf("par data: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != 1.0 {
		t.Fatalf("reloaded rows = %+v", rows)
	}
	if units := reloaded.Units(); len(units) != 1 || units[0].ID != "GWa" {
		t.Fatalf("reloaded units = %+v", units)
	}
	commits := reloaded.Commits()
	if len(commits) != 1 || commits[0].Message != "extend technology" {
		t.Fatalf("reloaded commits = %+v", commits)
	}
}

func TestSQLiteStoreUncommittedWorkNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	store.InitSet("technology", "coal_ppl")
	if err := store.CheckOut(); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := store.AddSetElement("technology", "gas_ppl"); err != nil {
		t.Fatalf("add: %v", err)
	}
	// No commit, so nothing is snapshotted.
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := reloaded.SetElements("technology"); len(got) != 0 {
		t.Fatalf("uncommitted work leaked: %v", got)
	}
}

func TestSQLiteStoreDefaultsPath(t *testing.T) {
	// Run in a temp dir so the default file does not pollute the source tree.
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	store, err := NewStore("")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if store.Path() != "ixforge.db" {
		t.Fatalf("path = %q", store.Path())
	}
}
