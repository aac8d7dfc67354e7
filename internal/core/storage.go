package core

import (
	"fmt"
	"os"

	"ixforge/internal/infra/persistence/memory"
	"ixforge/internal/infra/persistence/postgres"
	"ixforge/internal/infra/persistence/sqlite"
	"ixforge/pkg/domain"
)

// StorageDriver identifies a concrete scenario store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenScenarioStore selects a backend using environment variables. Defaults
// to sqlite when unset.
//
//	IXFORGE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	IXFORGE_SQLITE_PATH: path to sqlite file (default ./ixforge.db)
//	IXFORGE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenScenarioStore() (domain.ScenarioStore, error) {
	driver := os.Getenv("IXFORGE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		path := os.Getenv("IXFORGE_SQLITE_PATH")
		return sqlite.NewStore(path)
	case StoragePostgres:
		dsn := os.Getenv("IXFORGE_POSTGRES_DSN")
		return postgres.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
