package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rufm/ledger/internal/importer"
	"github.com/rufm/ledger/internal/services"
)

func newImportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from other tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "firefly-iii FILE",
		Short: "Import a Firefly III CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening export: %w", err)
			}
			defer f.Close()

			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				result, err := importer.NewFireflyImporter(ledger, a.logger(cmd)).Import(ctx, f)
				if err != nil {
					if result != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Stopped after %d transactions\n", result.Transactions)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Imported %d transactions, %d opening balances, created %d accounts, skipped %d rows\n",
					result.Transactions, result.OpeningBalances, result.AccountsCreated, result.Skipped)
				return nil
			})
		},
	})

	return cmd
}
