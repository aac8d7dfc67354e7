package main

import (
	"errors"

	"github.com/spf13/cobra"

	"ixforge/internal/core"
	"ixforge/internal/specfile"
	"ixforge/pkg/domain"
)

func newValidateCmd(a *app) *cobra.Command {
	var specGlob string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Dry-run a migration and report missing required elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd, specGlob)
		},
	}
	cmd.Flags().StringVar(&specGlob, "spec", "", "glob of TOML spec files (required)")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, specGlob string) error {
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
	result, err := applier.Validate(cmd.Context(), store, spec, nil, core.Options{Quiet: a.cfg.Quiet})
	if err != nil {
		var missing domain.MissingRequiredElementError
		if errors.As(err, &missing) {
			a.log.Errorf("validation failed: %v", missing)
		}
		return err
	}
	a.log.Infof("valid: would remove %d row(s), extend %d set(s), register %d unit(s)",
		result.TotalRemoved(), len(result.Added), len(result.UnitsAdded))
	return nil
}
