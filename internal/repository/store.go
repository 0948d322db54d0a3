package repository

import (
	"context"
	"time"

	"github.com/rufm/ledger/internal/models"
)

// LedgerStore is durable keyed storage for accounts and transactions.
// Transaction lists are ordered by date, most recent first.
type LedgerStore interface {
	InsertAccount(ctx context.Context, account models.NewAccount) (*models.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*models.Account, error)
	FindAccountByName(ctx context.Context, name string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListAccountsByType(ctx context.Context, accountType models.AccountType) ([]models.Account, error)
	UpdateAccountInitialBalance(ctx context.Context, id int64, initialBalance int64) (*models.Account, error)

	InsertTransaction(ctx context.Context, transaction models.NewTransaction) (*models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListTransactionsForAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
	ListTransactionsForAccountAsOf(ctx context.Context, accountID int64, date time.Time) ([]models.Transaction, error)

	// WithinTx runs fn against a store bound to a single database
	// transaction. The transaction commits when fn returns nil.
	WithinTx(ctx context.Context, fn func(LedgerStore) error) error
}
