// Package commands implements the ledger command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rufm/ledger/internal/config"
	"github.com/rufm/ledger/internal/database"
	"github.com/rufm/ledger/internal/services"
)

type app struct {
	envFile      string
	databasePath string
	verbose      bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Personal double-entry ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.databasePath, "database", "", "SQLite database file (default $DATABASE_PATH or ~/.rufm.db)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env", "", "path to a .env file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log ledger activity to stderr")

	rootCmd.AddCommand(newAccountsCommand(a))
	rootCmd.AddCommand(newTransactionsCommand(a))
	rootCmd.AddCommand(newImportCommand(a))

	return rootCmd
}

// withLedger opens the configured store for the duration of fn.
func (a *app) withLedger(cmd *cobra.Command, fn func(ctx context.Context, ledger *services.LedgerService) error) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.databasePath != "" {
		path, err := config.ExpandPath(a.databasePath)
		if err != nil {
			return err
		}
		cfg.Database.Driver = "sqlite3"
		cfg.Database.Path = path
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, db, err := database.OpenStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer db.Close()

	return fn(ctx, services.NewLedgerService(store, a.logger(cmd)))
}

func (a *app) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelError
	if a.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
