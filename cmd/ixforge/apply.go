package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ixforge/internal/adapters/reports"
	"ixforge/internal/core"
	"ixforge/internal/specfile"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		specGlob string
		scenario string
		message  string
		dryRun   bool
		fast     bool
		noReport bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a structural migration to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specfile.LoadGlob(specGlob)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			applier := &core.Applier{Log: a.log}
			result, err := applier.Apply(cmd.Context(), store, spec, nil, core.Options{
				DryRun:  dryRun,
				Fast:    fast,
				Quiet:   a.cfg.Quiet,
				Message: message,
			})
			if err != nil {
				return err
			}
			a.log.Infof("applied: %d removed, %d set(s) extended, %d unit(s), %d merged",
				result.TotalRemoved(), len(result.Added), len(result.UnitsAdded), result.Merged)

			if noReport {
				return nil
			}
			return a.exportReport(cmd, scenario, result, dryRun)
		},
	}
	cmd.Flags().StringVar(&specGlob, "spec", "", "glob of TOML spec files (required)")
	cmd.Flags().StringVar(&scenario, "scenario", "scenario", "scenario name used in report keys")
	cmd.Flags().StringVar(&message, "message", "", "commit message")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate without mutating the store")
	cmd.Flags().BoolVar(&fast, "fast", false, "skip stripping parameter data for removed elements")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "skip report artifact export")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

// exportReport renders the run summary through the report exporter and waits
// for the artifacts to land.
func (a *app) exportReport(cmd *cobra.Command, scenario string, result core.Result, dryRun bool) error {
	store, err := a.openBlob(cmd)
	if err != nil {
		return err
	}
	exporter := reports.NewExporter(store, nil)
	exporter.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exporter.Stop(ctx)
	}()

	record, err := exporter.Enqueue(cmd.Context(), reports.Input{
		Scenario: scenario,
		Result:   result,
		DryRun:   dryRun,
	})
	if err != nil {
		return err
	}
	deadline := time.Now().Add(30 * time.Second)
	for {
		current, ok := exporter.Get(record.ID)
		if !ok {
			return fmt.Errorf("report %s vanished", record.ID)
		}
		switch current.Status {
		case reports.StatusSucceeded:
			for _, artifact := range current.Artifacts {
				a.log.Infof("report artifact %s (%s, %d bytes)", artifact.Key, artifact.Format, artifact.SizeBytes)
			}
			return nil
		case reports.StatusFailed:
			return fmt.Errorf("report export failed: %s", current.Error)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("report export timed out")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
