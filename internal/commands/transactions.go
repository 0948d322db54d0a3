package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/services"
)

func newTransactionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Record and list transactions",
	}

	cmd.AddCommand(newTransactionsCreateCommand(a))
	cmd.AddCommand(newTransactionsListCommand(a))

	return cmd
}

func newTransactionsCreateCommand(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "create NAME AMOUNT SOURCE DESTINATION",
		Short: "Move AMOUNT from the SOURCE account to the DESTINATION account",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				t, err := ledger.CreateTransaction(ctx, &models.CreateTransactionRequest{
					Name:               args[0],
					Amount:             amount,
					SourceAccount:      args[2],
					DestinationAccount: args[3],
					Date:               date,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %q (id %d): %s from %s to %s on %s\n",
					t.Name, t.ID, formatCents(t.Amount), args[2], args[3], t.Date.Format(models.DateLayout))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")

	return cmd
}

func newTransactionsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				listing, err := ledger.ListTransactionsWithAccounts(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tNAME\tSOURCE\tDESTINATION\tAMOUNT")
				for _, t := range listing.Transactions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						t.Date.Format(models.DateLayout),
						t.Name,
						listing.AccountName(t.SourceAccountID),
						listing.AccountName(t.DestinationAccountID),
						formatCents(t.Amount),
					)
				}
				return w.Flush()
			})
		},
	}
}
