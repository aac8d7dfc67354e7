package core

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ixforge/pkg/domain"
)

// DefaultCommitMessage is attached to commits when Options.Message is empty.
const DefaultCommitMessage = "ixforge.Apply: structural migration"

// Options control a single migration run.
type Options struct {
	// DryRun simulates the migration: required-element checks and logging
	// run as usual, but the store is not mutated and nothing is committed.
	DryRun bool
	// Fast skips the parameter-data strip entirely. Referential integrity
	// for removed elements is the caller's problem; useful on large stores
	// known to hold no stale rows.
	Fast bool
	// Quiet raises the log level to Error for the duration of the run.
	Quiet bool
	// Message is the commit message; DefaultCommitMessage when empty.
	Message string
}

// Result summarizes a migration run.
type Result struct {
	// Removed is the ledger of stripped parameter rows keyed by set name.
	Removed Ledger
	// Added counts elements added per set.
	Added map[string]int
	// UnitsAdded lists the unit ids registered (or, under dry-run, the ids
	// that would have been registered).
	UnitsAdded []string
	// Merged is the number of rows merged from the data callback.
	Merged int
}

// TotalRemoved returns the stripped-row count across all sets.
func (r Result) TotalRemoved() int { return r.Removed.TotalRemoved() }

// Applier applies structural specifications to scenario stores. The zero
// value is usable; all fields are optional.
type Applier struct {
	// Log receives progress output. Defaults to logrus.StandardLogger().
	Log *logrus.Logger
	// Metrics, when set, records per-run outcome and duration.
	Metrics MetricsRecorder
	// Tracer, when set, wraps each run in a span.
	Tracer Tracer
}

// Apply applies spec to store.
//
// Each structural set known to the store is processed independently and in
// order: sets the spec does not mention are skipped; required elements are
// checked against the current contents; removed elements are stripped
// together with every parameter row referencing them (skipped under
// Options.Fast); added elements are appended. Units listed under
// spec.Add["unit"] are registered with the platform registry, then the data
// callback runs, then the transaction is committed.
//
// A missing required element aborts the run with
// domain.MissingRequiredElementError. Sets processed before the failure are
// NOT rolled back; callers that need all-or-nothing behavior run Validate
// first and only then Apply.
//
// Unlike every other mutation, the reference implementation this engine
// derives from registered units even under dry-run; here unit registration
// is suppressed under dry-run like everything else, and the would-be
// registrations are logged instead.
func (a *Applier) Apply(ctx context.Context, store domain.ScenarioStore, spec domain.Spec, data domain.DataFunc, opts Options) (Result, error) {
	log := a.runLogger(opts)
	operation := "apply"
	if opts.DryRun {
		operation = "apply_dry_run"
	}
	start := time.Now()
	var span TraceSpan
	if a.Tracer != nil {
		ctx, span = a.Tracer.Start(ctx, operation)
	}
	res, err := a.apply(ctx, store, spec, data, opts, log)
	if span != nil {
		span.End(err)
	}
	if a.Metrics != nil {
		a.Metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	return res, err
}

func (a *Applier) apply(ctx context.Context, store domain.ScenarioStore, spec domain.Spec, data domain.DataFunc, opts Options, log *logrus.Logger) (Result, error) {
	res := Result{Removed: Ledger{}, Added: map[string]int{}}

	if !opts.DryRun {
		if err := store.RemoveSolution(); err != nil && !errors.Is(err, domain.ErrNoSolution) {
			return res, err
		}
		if err := store.CheckOut(); err != nil {
			return res, err
		}
	}

	for _, setName := range store.SetList() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		// Skip sets the spec does not mention at all.
		if spec.TotalFor(setName) == 0 {
			continue
		}

		base := store.SetElements(setName)
		log.Infof("set %q", setName)
		log.Infof("  %d elements", len(base))

		require := spec.Require[setName]
		for _, code := range require {
			if !containsElement(base, code.Key()) {
				log.Errorf("  %q not found", code.Key())
				return res, domain.MissingRequiredElementError{Set: setName, Element: code.Key()}
			}
		}
		if len(require) > 0 {
			log.Infof("  check %d required element(s)", len(require))
		}

		if opts.Fast {
			if spec.Remove.Count(setName) > 0 {
				log.Info("  skip removing parameter values (fast)")
			}
		} else {
			for _, code := range spec.Remove[setName] {
				log.Infof("  remove %q and associated parameter elements", code.Key())
				removed, err := StripParData(store, setName, code.Key(), opts.DryRun)
				if err != nil {
					return res, err
				}
				for _, rows := range removed {
					res.Removed[setName] = append(res.Removed[setName], rows...)
				}
			}
		}

		add := spec.Add[setName]
		if !opts.DryRun {
			for _, code := range add {
				if err := store.AddSetElement(setName, code.Key()); err != nil {
					return res, err
				}
			}
		}
		if len(add) > 0 {
			res.Added[setName] = len(add)
			log.Infof("  add %d element(s)", len(add))
		}
		log.Info("  ---")
	}

	log.Infof("%d parameter elements removed", res.TotalRemoved())

	for _, code := range spec.Add["unit"] {
		unit := code
		if unit.Name == "" {
			unit.Name = unit.ID
		}
		if opts.DryRun {
			log.Infof("would add unit %q", unit.ID)
			res.UnitsAdded = append(res.UnitsAdded, unit.ID)
			continue
		}
		log.Infof("add unit %q", unit.ID)
		if err := store.AddUnit(unit.ID, unit.Name); err != nil {
			return res, err
		}
		res.UnitsAdded = append(res.UnitsAdded, unit.ID)
	}

	if data != nil {
		generated, err := data(store, opts.DryRun)
		if err != nil {
			return res, err
		}
		if len(generated) > 0 {
			merged, err := AddParData(store, generated, opts.DryRun)
			if err != nil {
				return res, err
			}
			res.Merged = merged
			log.Infof("merge %d generated parameter row(s)", merged)
		}
	}

	log.Info("commit results")
	if !opts.DryRun {
		message := opts.Message
		if message == "" {
			message = DefaultCommitMessage
		}
		if err := store.Commit(message); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Validate is a dry-run Apply: it checks required elements and reports what
// the migration would do, without mutating the store. The documented
// pre-flight for callers that need all-or-nothing behavior.
func (a *Applier) Validate(ctx context.Context, store domain.ScenarioStore, spec domain.Spec, data domain.DataFunc, opts Options) (Result, error) {
	opts.DryRun = true
	return a.Apply(ctx, store, spec, data, opts)
}

// runLogger returns the logger a run writes to, honoring Options.Quiet
// without mutating the configured logger.
func (a *Applier) runLogger(opts Options) *logrus.Logger {
	base := a.Log
	if base == nil {
		base = logrus.StandardLogger()
	}
	if !opts.Quiet {
		return base
	}
	quiet := logrus.New()
	quiet.SetOutput(base.Out)
	quiet.SetFormatter(base.Formatter)
	quiet.SetLevel(logrus.ErrorLevel)
	return quiet
}

func containsElement(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}
