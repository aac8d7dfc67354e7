// Command ixforge applies structural migration specs to scenario stores.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ixforge/internal/blob"
	"ixforge/internal/config"
	"ixforge/internal/infra/persistence/memory"
	"ixforge/internal/infra/persistence/postgres"
	"ixforge/internal/infra/persistence/sqlite"
	"ixforge/pkg/domain"
)

type app struct {
	cfg config.Config
	log *logrus.Logger

	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}
	root := &cobra.Command{
		Use:           "ixforge",
		Short:         "Apply structural migration specs to scenario stores",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			a.log.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to TOML config file")
	// Accept underscore spellings for flag names (--dry_run == --dry-run).
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	root.AddCommand(newApplyCmd(a), newValidateCmd(a), newWatchCmd(a))
	return root
}

// openStore constructs the scenario store selected by the configuration.
func (a *app) openStore() (domain.ScenarioStore, error) {
	switch a.cfg.StorageDriver {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		return sqlite.NewStore(a.cfg.SQLitePath)
	case "postgres":
		return postgres.NewStore(a.cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
	}
}

// openBlob constructs the artifact store selected by the configuration.
func (a *app) openBlob(cmd *cobra.Command) (blob.Store, error) {
	switch a.cfg.BlobDriver {
	case "fs":
		return blob.NewFilesystem(a.cfg.BlobRoot)
	case "memory":
		return blob.NewMemory(), nil
	case "s3":
		return blob.OpenS3FromEnv(cmd.Context())
	default:
		return nil, fmt.Errorf("unknown blob driver %q", a.cfg.BlobDriver)
	}
}

func closeStore(store domain.ScenarioStore) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}
