package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rufm/ledger/internal/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements LedgerStore on database/sql. The same queries serve
// PostgreSQL and SQLite through the configured Dialect.
type SQLStore struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, q: db, dialect: dialect}
}

const (
	accountColumns     = `id, name, account_type, initial_balance`
	transactionColumns = `id, name, source_account_id, destination_account_id, amount, date`
)

func (s *SQLStore) InsertAccount(ctx context.Context, account models.NewAccount) (*models.Account, error) {
	code, err := account.AccountType.Code()
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO accounts (name, account_type, initial_balance)
		VALUES ($1, $2, $3)
		RETURNING id`

	created := &models.Account{
		Name:           account.Name,
		AccountType:    account.AccountType,
		InitialBalance: account.InitialBalance,
	}
	err = s.q.QueryRowContext(ctx, s.dialect.Rebind(query), account.Name, code, account.InitialBalance).
		Scan(&created.ID)
	if err != nil {
		if errors.Is(s.dialect.Classify(err), ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %q", ErrAccountAlreadyExists, account.Name)
		}
		return nil, newStorageError("insert account", err)
	}
	return created, nil
}

func (s *SQLStore) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(s.q.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
		}
		return nil, readError("find account by id", err)
	}
	return account, nil
}

func (s *SQLStore) FindAccountByName(ctx context.Context, name string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1`

	account, err := scanAccount(s.q.QueryRowContext(ctx, s.dialect.Rebind(query), name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, name)
		}
		return nil, readError("find account by name", err)
	}
	return account, nil
}

func (s *SQLStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id`
	return s.queryAccounts(ctx, "list accounts", query)
}

func (s *SQLStore) ListAccountsByType(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	code, err := accountType.Code()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_type = $1 ORDER BY id`
	return s.queryAccounts(ctx, "list accounts by type", query, code)
}

func (s *SQLStore) UpdateAccountInitialBalance(ctx context.Context, id int64, initialBalance int64) (*models.Account, error) {
	query := `UPDATE accounts SET initial_balance = $1 WHERE id = $2
		RETURNING ` + accountColumns

	account, err := scanAccount(s.q.QueryRowContext(ctx, s.dialect.Rebind(query), initialBalance, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
		}
		return nil, readError("update account initial balance", err)
	}
	return account, nil
}

func (s *SQLStore) InsertTransaction(ctx context.Context, transaction models.NewTransaction) (*models.Transaction, error) {
	query := `INSERT INTO transactions (name, source_account_id, destination_account_id, amount, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	created := &models.Transaction{
		Name:                 transaction.Name,
		SourceAccountID:      transaction.SourceAccountID,
		DestinationAccountID: transaction.DestinationAccountID,
		Amount:               transaction.Amount,
		Date:                 models.DateOf(transaction.Date),
	}
	err := s.q.QueryRowContext(ctx, s.dialect.Rebind(query),
		transaction.Name,
		transaction.SourceAccountID,
		transaction.DestinationAccountID,
		transaction.Amount,
		created.Date.Format(models.DateLayout),
	).Scan(&created.ID)
	if err != nil {
		if errors.Is(s.dialect.Classify(err), ErrReferentialIntegrity) {
			return nil, fmt.Errorf("%w: transaction references unknown account (source %d, destination %d)",
				ErrReferentialIntegrity, transaction.SourceAccountID, transaction.DestinationAccountID)
		}
		return nil, newStorageError("insert transaction", err)
	}
	return created, nil
}

func (s *SQLStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		ORDER BY date DESC, id DESC`
	return s.queryTransactions(ctx, "list transactions", query)
}

func (s *SQLStore) ListTransactionsForAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE source_account_id = $1 OR destination_account_id = $1
		ORDER BY date DESC, id DESC`
	return s.queryTransactions(ctx, "list transactions for account", query, accountID)
}

func (s *SQLStore) ListTransactionsForAccountAsOf(ctx context.Context, accountID int64, date time.Time) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE (source_account_id = $1 OR destination_account_id = $1) AND date <= $2
		ORDER BY date DESC, id DESC`
	return s.queryTransactions(ctx, "list transactions for account as of date", query,
		accountID, models.DateOf(date).Format(models.DateLayout))
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(LedgerStore) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx, dialect: s.dialect, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return newStorageError("commit transaction", err)
	}
	return nil
}

func (s *SQLStore) queryAccounts(ctx context.Context, op, query string, args ...any) ([]models.Account, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, newStorageError(op, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, readError(op, err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError(op, err)
	}
	return accounts, nil
}

func (s *SQLStore) queryTransactions(ctx context.Context, op, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, newStorageError(op, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.Name, &t.SourceAccountID, &t.DestinationAccountID, &t.Amount, (*dateColumn)(&t.Date))
		if err != nil {
			return nil, newStorageError(op, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError(op, err)
	}
	return transactions, nil
}

// readError keeps a stored account type that no longer decodes distinct
// from a driver failure.
func readError(op string, err error) error {
	if errors.Is(err, models.ErrUnknownAccountType) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return newStorageError(op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.Name, &account.AccountType, &account.InitialBalance)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// dateColumn scans a DATE column. lib/pq yields time.Time; SQLite may hand
// back the stored text.
type dateColumn time.Time

func (d *dateColumn) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		*d = dateColumn(models.DateOf(v))
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date column value %T", value)
	}
	return nil
}

func (d *dateColumn) parse(s string) error {
	if len(s) > len(models.DateLayout) {
		s = s[:len(models.DateLayout)]
	}
	t, err := models.ParseDate(s)
	if err != nil {
		return err
	}
	*d = dateColumn(t)
	return nil
}
