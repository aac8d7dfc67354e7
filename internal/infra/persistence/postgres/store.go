// Package postgres provides a Postgres-backed scenario store that mirrors
// the in-memory semantics, snapshotting the committed state as JSONB buckets
// after every successful commit.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"ixforge/internal/infra/persistence/memory"
	"ixforge/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.ScenarioStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/ixforge?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store wraps the in-memory store with Postgres snapshot persistence.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// Commit commits the working state in memory, then snapshots to Postgres.
func (s *Store) Commit(message string) error {
	if err := s.Store.Commit(message); err != nil {
		return err
	}
	return s.persist(context.Background())
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

type setsBucket struct {
	Order    []string            `json:"order"`
	Elements map[string][]string `json:"elements"`
}

type parsBucket struct {
	Order  []string                   `json:"order"`
	Tables map[string]domain.ParTable `json:"tables"`
}

type metaBucket struct {
	HasSolution bool `json:"has_solution"`
}

var postgresBuckets = []string{"sets", "pars", "units", "commits", "meta"}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "sets":
			var b setsBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode sets: %w", err)
			}
			snapshot.SetOrder = b.Order
			snapshot.Sets = b.Elements
		case "pars":
			var b parsBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode pars: %w", err)
			}
			snapshot.ParOrder = b.Order
			snapshot.Pars = b.Tables
		case "units":
			if err := json.Unmarshal(payload, &snapshot.Units); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode units: %w", err)
			}
		case "commits":
			if err := json.Unmarshal(payload, &snapshot.Commits); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode commits: %w", err)
			}
		case "meta":
			var b metaBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode meta: %w", err)
			}
			snapshot.HasSolution = b.HasSolution
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		var data []byte
		switch bucket {
		case "sets":
			data, err = json.Marshal(setsBucket{Order: snapshot.SetOrder, Elements: snapshot.Sets})
		case "pars":
			data, err = json.Marshal(parsBucket{Order: snapshot.ParOrder, Tables: snapshot.Pars})
		case "units":
			data, err = json.Marshal(snapshot.Units)
		case "commits":
			data, err = json.Marshal(snapshot.Commits)
		case "meta":
			data, err = json.Marshal(metaBucket{HasSolution: snapshot.HasSolution})
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
