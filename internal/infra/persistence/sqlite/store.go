// Package sqlite persists the in-memory scenario state to a single SQLite
// table as JSON buckets. It snapshots the full committed state after every
// successful commit.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ixforge/internal/infra/persistence/memory"
	"ixforge/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ domain.ScenarioStore = (*Store)(nil)

// Store wraps the in-memory store with SQLite snapshot persistence.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed scenario store.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "ixforge.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Commit commits the working state in memory, then snapshots to SQLite.
func (s *Store) Commit(message string) error {
	if err := s.Store.Commit(message); err != nil {
		return err
	}
	return s.persist()
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

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

var sqliteBuckets = []string{"sets", "pars", "units", "commits", "meta"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case "sets":
			var b setsBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return fmt.Errorf("decode sets: %w", err)
			}
			snapshot.SetOrder = b.Order
			snapshot.Sets = b.Elements
		case "pars":
			var b parsBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return fmt.Errorf("decode pars: %w", err)
			}
			snapshot.ParOrder = b.Order
			snapshot.Pars = b.Tables
		case "units":
			if err := json.Unmarshal(payload, &snapshot.Units); err != nil {
				return fmt.Errorf("decode units: %w", err)
			}
		case "commits":
			if err := json.Unmarshal(payload, &snapshot.Commits); err != nil {
				return fmt.Errorf("decode commits: %w", err)
			}
		case "meta":
			var b metaBucket
			if err := json.Unmarshal(payload, &b); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
			snapshot.HasSolution = b.HasSolution
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	s.Store.ImportState(snapshot)
	return nil
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		data, err := marshalBucket(bucket, snapshot)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?)
			ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func marshalBucket(bucket string, snapshot memory.Snapshot) ([]byte, error) {
	switch bucket {
	case "sets":
		return json.Marshal(setsBucket{Order: snapshot.SetOrder, Elements: snapshot.Sets})
	case "pars":
		return json.Marshal(parsBucket{Order: snapshot.ParOrder, Tables: snapshot.Pars})
	case "units":
		return json.Marshal(snapshot.Units)
	case "commits":
		return json.Marshal(snapshot.Commits)
	case "meta":
		return json.Marshal(metaBucket{HasSolution: snapshot.HasSolution})
	default:
		return nil, fmt.Errorf("unknown bucket %s", bucket)
	}
}
