package core

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"ixforge/pkg/domain"
)

// Ledger accumulates parameter rows stripped during a migration, keyed by
// the structural set whose element removal caused the strip. It exists for
// reporting, not rollback.
type Ledger map[string][]domain.ParRow

// TotalRemoved returns the row count summed over all sets.
func (l Ledger) TotalRemoved() int {
	n := 0
	for _, rows := range l {
		n += len(rows)
	}
	return n
}

// StripParData removes every parameter row referencing element through a
// dimension indexed by set, returning the removed rows per parameter. Under
// dryRun the store is left untouched and the rows that would be removed are
// returned instead.
func StripParData(store domain.ScenarioStore, set, element string, dryRun bool) (domain.ParData, error) {
	if dryRun {
		return store.FindParData(set, element), nil
	}
	removed, err := store.RemoveParData(set, element)
	if err != nil {
		return nil, fmt.Errorf("strip %s=%s: %w", set, element, err)
	}
	return removed, nil
}

// AddParData merges generated rows into the store's parameter tables. Under
// dryRun nothing is written; the total row count is still returned so
// callers can log what a real run would merge.
func AddParData(store domain.ScenarioStore, data domain.ParData, dryRun bool) (int, error) {
	total := data.Total()
	if dryRun {
		return total, nil
	}
	for name, rows := range data {
		if len(rows) == 0 {
			continue
		}
		if err := store.AddParData(name, rows); err != nil {
			return 0, fmt.Errorf("merge %s: %w", name, err)
		}
	}
	return total, nil
}

// FilterParams returns the subset of data whose parameter names match the
// doublestar pattern. An empty pattern selects everything.
func FilterParams(data domain.ParData, pattern string) (domain.ParData, error) {
	if pattern == "" {
		return data, nil
	}
	out := domain.ParData{}
	for name, rows := range data {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if ok {
			out[name] = rows
		}
	}
	return out, nil
}
