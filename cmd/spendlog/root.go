package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
)

// app carries what every subcommand shares once the root has run.
type app struct {
	configPath string
	jsonOutput bool

	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "spendlog",
		Short: "Personal spending journal",
		Long: `spendlog records spending by date, category and amount and
summarizes it as chart-ready line and pie series.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(a),
		newWorkerCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newCategoriesCmd(a),
		newDashboardCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := cli.LoadEnvFile(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := cli.LoadAndValidateConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg, cmd.ErrOrStderr())
	return nil
}

// openBackend builds the configured primary store.
func (a *app) openBackend(ctx context.Context) (*backend.Backend, error) {
	bc, err := backend.Primary(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewOpener(a.logger.Logger).Open(ctx, bc)
}

// withAccessor opens the primary store for a one-shot command and closes it
// when fn returns.
func (a *app) withAccessor(ctx context.Context, fn func(*services.Accessor) error) error {
	res, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			a.logger.Warn("Failed to close backend", applog.FieldError, err)
		}
	}()
	return fn(services.NewAccessor(res.Store))
}

func (a *app) withJournal(ctx context.Context, fn func(*services.JournalService) error) error {
	return a.withAccessor(ctx, func(accessor *services.Accessor) error {
		return fn(services.NewJournalService(accessor))
	})
}

// warnVolatile flags writes that will be lost when the process exits.
func (a *app) warnVolatile() {
	if a.cfg.DataBackend == config.BackendMemory {
		a.logger.Warn("Memory backend does not persist changes made from the command line",
			"data_directory", a.cfg.DataDirectory)
	}
}
