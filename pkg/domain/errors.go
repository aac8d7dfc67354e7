package domain

import (
	"errors"
	"fmt"
)

// ErrNoSolution is returned by RemoveSolution when the store holds no cached
// solve results. Callers treat it as a no-op.
var ErrNoSolution = errors.New("scenario has no solution")

// ErrNotCheckedOut is returned by mutating store operations outside a
// checkout.
var ErrNotCheckedOut = errors.New("scenario is not checked out")

// MissingRequiredElementError reports that a required structural element is
// absent from the scenario. It aborts the whole migration; sets processed
// before the failing one may already be mutated (see the Applier docs for the
// dry-run pre-flight pattern).
type MissingRequiredElementError struct {
	Set     string
	Element string
}

func (e MissingRequiredElementError) Error() string {
	return fmt.Sprintf("required element %q not found in set %q", e.Element, e.Set)
}

// NotFoundError reports a missing set or parameter.
type NotFoundError struct {
	Kind string // "set" or "parameter"
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}
