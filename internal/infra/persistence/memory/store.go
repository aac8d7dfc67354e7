// Package memory provides the canonical in-memory implementation of the
// scenario store. Durable backends wrap this store and snapshot its committed
// state after every successful commit.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ixforge/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.ScenarioStore = (*Store)(nil)

type scenarioState struct {
	setOrder    []string
	sets        map[string][]string
	parOrder    []string
	pars        map[string]domain.ParTable
	units       []domain.Unit
	commits     []domain.CommitRecord
	hasSolution bool
}

func newScenarioState() scenarioState {
	return scenarioState{
		sets: make(map[string][]string),
		pars: make(map[string]domain.ParTable),
	}
}

func (s scenarioState) clone() scenarioState {
	cloned := newScenarioState()
	cloned.setOrder = append([]string(nil), s.setOrder...)
	for name, elems := range s.sets {
		cloned.sets[name] = append([]string(nil), elems...)
	}
	cloned.parOrder = append([]string(nil), s.parOrder...)
	for name, table := range s.pars {
		cloned.pars[name] = domain.CloneParTable(table)
	}
	cloned.units = append([]domain.Unit(nil), s.units...)
	cloned.commits = append([]domain.CommitRecord(nil), s.commits...)
	cloned.hasSolution = s.hasSolution
	return cloned
}

// Snapshot captures a point-in-time clone of the committed store state,
// serializable as JSON buckets by durable backends.
type Snapshot struct {
	SetOrder    []string                   `json:"set_order"`
	Sets        map[string][]string        `json:"sets"`
	ParOrder    []string                   `json:"par_order"`
	Pars        map[string]domain.ParTable `json:"pars"`
	Units       []domain.Unit              `json:"units"`
	Commits     []domain.CommitRecord      `json:"commits"`
	HasSolution bool                       `json:"has_solution"`
}

func snapshotFromState(state scenarioState) Snapshot {
	c := state.clone()
	return Snapshot{
		SetOrder:    c.setOrder,
		Sets:        c.sets,
		ParOrder:    c.parOrder,
		Pars:        c.pars,
		Units:       c.units,
		Commits:     c.commits,
		HasSolution: c.hasSolution,
	}
}

func stateFromSnapshot(s Snapshot) scenarioState {
	state := newScenarioState()
	state.setOrder = append([]string(nil), s.SetOrder...)
	for name, elems := range s.Sets {
		state.sets[name] = append([]string(nil), elems...)
	}
	// Tolerate snapshots written before set/par order was recorded.
	if len(state.setOrder) == 0 && len(s.Sets) > 0 {
		state.setOrder = sortedKeys(s.Sets)
	}
	state.parOrder = append([]string(nil), s.ParOrder...)
	for name, table := range s.Pars {
		state.pars[name] = domain.CloneParTable(table)
	}
	if len(state.parOrder) == 0 && len(s.Pars) > 0 {
		state.parOrder = sortedKeys(s.Pars)
	}
	state.units = append([]domain.Unit(nil), s.Units...)
	state.commits = append([]domain.CommitRecord(nil), s.Commits...)
	state.hasSolution = s.HasSolution
	return state
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Store is the in-memory scenario store. The committed state is the durable
// truth; CheckOut clones it into a working state that mutations target until
// Commit or Discard.
type Store struct {
	mu         sync.RWMutex
	committed  scenarioState
	working    scenarioState
	checkedOut bool
	nowFn      func() time.Time
}

// NewStore constructs an empty in-memory scenario store.
func NewStore() *Store {
	return &Store{
		committed: newScenarioState(),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// NowFunc exposes the clock for tests.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// SetNowFunc overrides the clock. Test hook.
func (s *Store) SetNowFunc(fn func() time.Time) { s.nowFn = fn }

// state returns the state mutations and reads target: working during a
// checkout, committed otherwise. Callers hold s.mu.
func (s *Store) state() *scenarioState {
	if s.checkedOut {
		return &s.working
	}
	return &s.committed
}

// InitSet declares a structural set and seeds its elements, outside the
// checkout discipline. Intended for scenario setup and snapshot hydration.
func (s *Store) InitSet(name string, elements ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state()
	if _, ok := st.sets[name]; !ok {
		st.setOrder = append(st.setOrder, name)
		st.sets[name] = nil
	}
	for _, e := range elements {
		if !containsString(st.sets[name], e) {
			st.sets[name] = append(st.sets[name], e)
		}
	}
}

// InitPar declares a parameter table with its dimension schema, outside the
// checkout discipline.
func (s *Store) InitPar(name string, dims map[string]string, rows ...domain.ParRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state()
	table, ok := st.pars[name]
	if !ok {
		st.parOrder = append(st.parOrder, name)
		table = domain.ParTable{Dims: map[string]string{}}
	}
	for k, v := range dims {
		table.Dims[k] = v
	}
	table.Rows = append(table.Rows, domain.CloneParRows(rows)...)
	st.pars[name] = table
}

// MarkSolved flags cached solve results as present. Test and setup hook.
func (s *Store) MarkSolved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state().hasSolution = true
}

// SetList returns all known structural set names in declaration order.
func (s *Store) SetList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state().setOrder...)
}

// SetElements returns the elements of the named set in insertion order.
func (s *Store) SetElements(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state().sets[name]...)
}

// AddSetElement appends elements to the named set, de-duplicating against the
// current contents. Requires a checkout.
func (s *Store) AddSetElement(set string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkedOut {
		return domain.ErrNotCheckedOut
	}
	st := &s.working
	if _, ok := st.sets[set]; !ok {
		st.setOrder = append(st.setOrder, set)
		st.sets[set] = nil
	}
	for _, id := range ids {
		if !containsString(st.sets[set], id) {
			st.sets[set] = append(st.sets[set], id)
		}
	}
	return nil
}

// ParList returns all parameter names in declaration order.
func (s *Store) ParList() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state().parOrder...)
}

// ParData returns rows of the named parameter matching the filter.
func (s *Store) ParData(name string, filter map[string]string) ([]domain.ParRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.state().pars[name]
	if !ok {
		return nil, domain.NotFoundError{Kind: "parameter", Name: name}
	}
	var out []domain.ParRow
	for _, row := range table.Rows {
		if rowMatches(row, filter) {
			out = append(out, domain.CloneParRow(row))
		}
	}
	return out, nil
}

func rowMatches(row domain.ParRow, filter map[string]string) bool {
	for col, want := range filter {
		if row.Keys[col] != want {
			return false
		}
	}
	return true
}

// rowReferences reports whether the row references element through any
// dimension of the table indexed by set.
func rowReferences(table domain.ParTable, row domain.ParRow, set, element string) bool {
	for dim, indexed := range table.Dims {
		if indexed == set && row.Keys[dim] == element {
			return true
		}
	}
	return false
}

// FindParData scans all parameter tables for rows referencing element in a
// dimension indexed by set. Read-only.
func (s *Store) FindParData(set, element string) domain.ParData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state()
	found := domain.ParData{}
	for _, name := range st.parOrder {
		table := st.pars[name]
		for _, row := range table.Rows {
			if rowReferences(table, row, set, element) {
				found[name] = append(found[name], domain.CloneParRow(row))
			}
		}
	}
	return found
}

// RemoveParData deletes rows referencing element in a dimension indexed by
// set, across all parameter tables, returning the removed rows. Requires a
// checkout.
func (s *Store) RemoveParData(set, element string) (domain.ParData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkedOut {
		return nil, domain.ErrNotCheckedOut
	}
	st := &s.working
	removed := domain.ParData{}
	for _, name := range st.parOrder {
		table := st.pars[name]
		var kept []domain.ParRow
		for _, row := range table.Rows {
			if rowReferences(table, row, set, element) {
				removed[name] = append(removed[name], domain.CloneParRow(row))
				continue
			}
			kept = append(kept, row)
		}
		if len(removed[name]) > 0 {
			table.Rows = kept
			st.pars[name] = table
		}
	}
	return removed, nil
}

// AddParData merges rows into the named parameter table, creating the table
// and inferring its dimension schema if absent. Requires a checkout.
func (s *Store) AddParData(name string, rows []domain.ParRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkedOut {
		return domain.ErrNotCheckedOut
	}
	st := &s.working
	table, ok := st.pars[name]
	if !ok {
		st.parOrder = append(st.parOrder, name)
		table = domain.ParTable{Dims: map[string]string{}}
		for _, row := range rows {
			for col := range row.Keys {
				if _, seen := table.Dims[col]; !seen {
					table.Dims[col] = s.inferSetLocked(col)
				}
			}
		}
	}
	table.Rows = append(table.Rows, domain.CloneParRows(rows)...)
	st.pars[name] = table
	return nil
}

// inferSet maps a dimension column to a structural set: the column name
// itself when it names a set, otherwise its prefix before the first
// underscore (node_loc -> node). Callers hold s.mu.
func (s *Store) inferSetLocked(col string) string {
	st := s.state()
	if _, ok := st.sets[col]; ok {
		return col
	}
	if i := strings.IndexByte(col, '_'); i > 0 {
		if _, ok := st.sets[col[:i]]; ok {
			return col[:i]
		}
	}
	return col
}

// AddUnit registers a unit with the platform registry. Platform-level, so it
// is accepted with or without a checkout; re-registration updates the
// comment.
func (s *Store) AddUnit(id, comment string) error {
	if id == "" {
		return fmt.Errorf("unit id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state()
	for i, u := range st.units {
		if u.ID == id {
			st.units[i].Comment = comment
			return nil
		}
	}
	st.units = append(st.units, domain.Unit{ID: id, Comment: comment})
	return nil
}

// Units returns registered units in registration order.
func (s *Store) Units() []domain.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Unit(nil), s.state().units...)
}

// HasSolution reports whether cached solve results are present.
func (s *Store) HasSolution() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state().hasSolution
}

// RemoveSolution invalidates cached solve results.
func (s *Store) RemoveSolution() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state()
	if !st.hasSolution {
		return domain.ErrNoSolution
	}
	st.hasSolution = false
	return nil
}

// CheckOut clones the committed state into a working copy. Idempotent.
func (s *Store) CheckOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkedOut {
		return nil
	}
	s.working = s.committed.clone()
	s.checkedOut = true
	return nil
}

// Commit promotes the working state to committed, records the message, and
// ends the transaction.
func (s *Store) Commit(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.checkedOut {
		return domain.ErrNotCheckedOut
	}
	s.working.commits = append(s.working.commits, domain.CommitRecord{Message: message, At: s.nowFn()})
	s.committed = s.working
	s.working = scenarioState{}
	s.checkedOut = false
	return nil
}

// Discard abandons uncommitted work. No-op outside a checkout.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = scenarioState{}
	s.checkedOut = false
}

// Commits returns the commit log, oldest first.
func (s *Store) Commits() []domain.CommitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CommitRecord(nil), s.state().commits...)
}

// ExportState returns a snapshot of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.committed)
}

// ImportState replaces the committed state with the snapshot contents and
// drops any checkout in progress.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = stateFromSnapshot(snapshot)
	s.working = scenarioState{}
	s.checkedOut = false
}

func containsString(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}
