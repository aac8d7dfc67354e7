package domain

// ScenarioStore is the contract between the migration engine and a scenario
// backend. It holds ordered structural sets, per-parameter tables keyed by
// structural elements, and a platform-level unit registry, under an advisory
// checkout/commit discipline: CheckOut marks the store editable (idempotent),
// Commit durably persists the working state with a message and ends the
// transaction, Discard abandons uncommitted work. Mutating operations outside
// a checkout fail with ErrNotCheckedOut.
//
// The discipline is advisory, not a lock; callers serialize access to a given
// store themselves.
type ScenarioStore interface {
	// SetList returns the names of all structural sets known to the store,
	// in a stable order.
	SetList() []string
	// SetElements returns the current elements of the named set in insertion
	// order. Unknown set names yield an empty slice.
	SetElements(name string) []string
	// AddSetElement appends elements to the named set, creating the set if
	// needed. Adding an element that is already present is a no-op.
	AddSetElement(set string, ids ...string) error

	// ParList returns the names of all parameter tables, in a stable order.
	ParList() []string
	// ParData returns rows of the named parameter matching the column-value
	// filter (nil filter returns all rows).
	ParData(name string, filter map[string]string) ([]ParRow, error)
	// FindParData scans all parameter tables for rows referencing element in
	// a dimension indexed by set, without removing anything.
	FindParData(set, element string) ParData
	// RemoveParData deletes all rows referencing element in a dimension
	// indexed by set, across every parameter table, returning the removed
	// rows keyed by parameter name.
	RemoveParData(set, element string) (ParData, error)
	// AddParData merges rows into the named parameter table.
	AddParData(name string, rows []ParRow) error

	// AddUnit registers a unit with the platform registry. Re-registering an
	// existing id updates its comment.
	AddUnit(id, comment string) error
	// Units returns the registered units in registration order.
	Units() []Unit

	// HasSolution reports whether cached solve results are present.
	HasSolution() bool
	// RemoveSolution invalidates cached solve results, returning
	// ErrNoSolution when there is nothing to discard.
	RemoveSolution() error

	// CheckOut marks the store editable. Idempotent.
	CheckOut() error
	// Commit persists the working state with the given message and ends the
	// transaction.
	Commit(message string) error
	// Discard abandons uncommitted work, reverting to the last committed
	// state.
	Discard()
	// Commits returns the commit log, oldest first.
	Commits() []CommitRecord
}

// DataFunc computes non-structural parameter data during a migration. It may
// mutate the store directly, return rows to merge, or both; it must not
// commit. dryRun mirrors the migration's dry-run flag.
type DataFunc func(store ScenarioStore, dryRun bool) (ParData, error)
