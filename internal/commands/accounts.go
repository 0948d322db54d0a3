package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/services"
)

func newAccountsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Create and inspect accounts",
	}

	cmd.AddCommand(newAccountsCreateCommand(a))
	cmd.AddCommand(newAccountsListCommand(a))
	cmd.AddCommand(newAccountsShowCommand(a))

	return cmd
}

func newAccountsCreateCommand(a *app) *cobra.Command {
	var initialBalance string
	var accountType string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := parseAmount(initialBalance)
			if err != nil {
				return err
			}

			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				account, err := ledger.CreateAccount(ctx, &models.CreateAccountRequest{
					Name:           args[0],
					AccountType:    accountType,
					InitialBalance: balance,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %q (id %d) with initial balance %s\n",
					account.AccountType, account.Name, account.ID, formatCents(account.InitialBalance))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&initialBalance, "initial-balance", "0", "opening balance in major units, e.g. 12.34")
	cmd.Flags().StringVar(&accountType, "type", models.AccountTypeAsset.String(), "account type: Asset, Expense or Revenue")

	return cmd
}

func newAccountsListCommand(a *app) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := optionalDate(asOf)
			if err != nil {
				return err
			}

			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				summaries, err := ledger.ListAccountSummaries(ctx, date)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE")
				for _, s := range summaries {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.AccountType, formatCents(s.Balance))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "compute balances at the end of this date (YYYY-MM-DD)")

	return cmd
}

func newAccountsShowCommand(a *app) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show an account's balance and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := optionalDate(asOf)
			if err != nil {
				return err
			}

			return a.withLedger(cmd, func(ctx context.Context, ledger *services.LedgerService) error {
				account, err := ledger.GetAccountByName(ctx, args[0])
				if err != nil {
					return err
				}

				var balance int64
				if date != nil {
					balance, err = ledger.GetAccountBalanceAsOfDate(ctx, account.ID, *date)
				} else {
					balance, err = ledger.GetAccountBalance(ctx, account.ID)
				}
				if err != nil {
					return err
				}

				transactions, err := ledger.GetAccountTransactions(ctx, account.ID, date)
				if err != nil {
					return err
				}

				return printAccount(cmd.OutOrStdout(), account, balance, transactions)
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "show the account as it stood at the end of this date (YYYY-MM-DD)")

	return cmd
}

func printAccount(out io.Writer, account *models.Account, balance int64, transactions []models.AccountTransaction) error {
	fmt.Fprintf(out, "%s (%s)\n", account.Name, account.AccountType)
	fmt.Fprintf(out, "Initial balance: %s\n", formatCents(account.InitialBalance))
	fmt.Fprintf(out, "Balance:         %s\n", formatCents(balance))

	if len(transactions) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tAMOUNT")
	for _, t := range transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Date.Format(models.DateLayout), t.Name, formatSigned(t.SignedAmount()))
	}
	return w.Flush()
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	date, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
