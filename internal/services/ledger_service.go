package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
)

var (
	ErrSameAccount   = errors.New("source and destination accounts cannot be the same")
	ErrInvalidAmount = errors.New("amount must be a positive number of cents")
)

// LedgerService is the accounting engine. It holds no state of its own:
// every balance is derived from the store on each call.
type LedgerService struct {
	store     repository.LedgerStore
	validator *ValidationHelper
	logger    *slog.Logger
	activity  *ActivityLogger
	now       func() time.Time
}

func NewLedgerService(store repository.LedgerStore, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:     store,
		validator: NewValidationHelper(),
		logger:    logger,
		activity:  NewActivityLogger(logger),
		now:       time.Now,
	}
}

// ComputeBalance applies the double-entry rule: credits (the account is the
// destination) add to the initial balance, debits (the account is the
// source) subtract from it. Transactions that do not reference the account
// are ignored.
func ComputeBalance(account models.Account, transactions []models.Transaction) int64 {
	balance := account.InitialBalance
	for _, t := range transactions {
		if t.DestinationAccountID == account.ID {
			balance += t.Amount
		}
		if t.SourceAccountID == account.ID {
			balance -= t.Amount
		}
	}
	return balance
}

func (s *LedgerService) CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		s.logger.Warn("invalid create account request",
			"account_name", req.Name,
			"error", err.Error(),
		)
		return nil, err
	}

	accountType := models.AccountTypeAsset
	if req.AccountType != "" {
		parsed, err := models.ParseAccountType(req.AccountType)
		if err != nil {
			return nil, err
		}
		accountType = parsed
	}

	account, err := s.store.InsertAccount(ctx, models.NewAccount{
		Name:           req.Name,
		AccountType:    accountType,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		s.activity.Failure(ctx, "create account", err, "account_name", req.Name)
		return nil, err
	}

	s.activity.AccountCreated(ctx, account)
	return account, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *LedgerService) ListAccountsByType(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	return s.store.ListAccountsByType(ctx, accountType)
}

func (s *LedgerService) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	account, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		s.logReadError("failed to get account", err, "account_id", id)
		return nil, err
	}
	return account, nil
}

func (s *LedgerService) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	account, err := s.store.FindAccountByName(ctx, name)
	if err != nil {
		s.logReadError("failed to get account", err, "account_name", name)
		return nil, err
	}
	return account, nil
}

// UpdateAccountInitialBalance overwrites the baseline the balance formula
// starts from. Transactions are not touched.
func (s *LedgerService) UpdateAccountInitialBalance(ctx context.Context, id int64, initialBalance int64) (*models.Account, error) {
	account, err := s.store.UpdateAccountInitialBalance(ctx, id, initialBalance)
	if err != nil {
		s.activity.Failure(ctx, "update initial balance", err, "account_id", id)
		return nil, err
	}

	s.activity.InitialBalanceChanged(ctx, account)
	return account, nil
}

func (s *LedgerService) GetAccountBalance(ctx context.Context, id int64) (int64, error) {
	account, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("balance of account %d: %w", id, err)
	}

	transactions, err := s.store.ListTransactionsForAccount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("balance of account %d: %w", id, err)
	}
	return ComputeBalance(*account, transactions), nil
}

// GetAccountBalanceAsOfDate is the balance at the end of date: transactions
// dated on date are included.
func (s *LedgerService) GetAccountBalanceAsOfDate(ctx context.Context, id int64, date time.Time) (int64, error) {
	account, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("balance of account %d as of %s: %w", id, date.Format(models.DateLayout), err)
	}

	transactions, err := s.store.ListTransactionsForAccountAsOf(ctx, id, date)
	if err != nil {
		return 0, fmt.Errorf("balance of account %d as of %s: %w", id, date.Format(models.DateLayout), err)
	}
	return ComputeBalance(*account, transactions), nil
}

// ListAccountSummaries returns every account with its balance, computed as
// of asOf when it is non-nil.
func (s *LedgerService) ListAccountSummaries(ctx context.Context, asOf *time.Time) ([]models.AccountSummary, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		var balance int64
		if asOf != nil {
			balance, err = s.GetAccountBalanceAsOfDate(ctx, account.ID, *asOf)
		} else {
			balance, err = s.GetAccountBalance(ctx, account.ID)
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.AccountSummary{Account: account, Balance: balance})
	}
	return summaries, nil
}

// CreateTransaction resolves the named accounts and records the transfer.
// Resolution and insertion share one database transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		s.logger.Warn("invalid create transaction request",
			"source_account", req.SourceAccount,
			"destination_account", req.DestinationAccount,
			"error", err.Error(),
		)
		return nil, err
	}

	date := models.DateOf(s.now())
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	var created *models.Transaction
	err := s.store.WithinTx(ctx, func(store repository.LedgerStore) error {
		source, err := store.FindAccountByName(ctx, req.SourceAccount)
		if err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		destination, err := store.FindAccountByName(ctx, req.DestinationAccount)
		if err != nil {
			return fmt.Errorf("destination account: %w", err)
		}

		created, err = insertTransaction(ctx, store, models.NewTransaction{
			Name:                 req.Name,
			SourceAccountID:      source.ID,
			DestinationAccountID: destination.ID,
			Amount:               req.Amount,
			Date:                 date,
		})
		return err
	})
	if err != nil {
		s.activity.Failure(ctx, "create transaction", err,
			"source_account", req.SourceAccount,
			"destination_account", req.DestinationAccount,
		)
		return nil, err
	}

	s.activity.Transfer(ctx, created)
	return created, nil
}

// CreateTransactionByID records a transfer between accounts already known by id.
func (s *LedgerService) CreateTransactionByID(ctx context.Context, transaction models.NewTransaction) (*models.Transaction, error) {
	created, err := insertTransaction(ctx, s.store, transaction)
	if err != nil {
		s.activity.Failure(ctx, "create transaction", err,
			"source_account_id", transaction.SourceAccountID,
			"destination_account_id", transaction.DestinationAccountID,
		)
		return nil, err
	}

	s.activity.Transfer(ctx, created)
	return created, nil
}

func insertTransaction(ctx context.Context, store repository.LedgerStore, transaction models.NewTransaction) (*models.Transaction, error) {
	if transaction.Amount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, transaction.Amount)
	}
	if transaction.SourceAccountID == transaction.DestinationAccountID {
		return nil, ErrSameAccount
	}
	return store.InsertTransaction(ctx, transaction)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// ListTransactionsWithAccounts returns all transactions along with every
// account they reference, each account looked up once.
func (s *LedgerService) ListTransactionsWithAccounts(ctx context.Context) (*models.TransactionListing, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{})
	for _, t := range transactions {
		ids[t.SourceAccountID] = struct{}{}
		ids[t.DestinationAccountID] = struct{}{}
	}

	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	accounts := make(map[int64]models.Account, len(sorted))
	for _, id := range sorted {
		account, err := s.store.FindAccountByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolving account %d: %w", id, err)
		}
		accounts[id] = *account
	}

	return &models.TransactionListing{Transactions: transactions, Accounts: accounts}, nil
}

func (s *LedgerService) GetTransactionsForAccount(ctx context.Context, id int64) ([]models.Transaction, error) {
	return s.store.ListTransactionsForAccount(ctx, id)
}

func (s *LedgerService) GetTransactionsForAccountAsOfDate(ctx context.Context, id int64, date time.Time) ([]models.Transaction, error) {
	return s.store.ListTransactionsForAccountAsOf(ctx, id, date)
}

// GetAccountTransactions returns the account's transactions tagged with
// their direction relative to it. A nil asOf means all of them.
func (s *LedgerService) GetAccountTransactions(ctx context.Context, id int64, asOf *time.Time) ([]models.AccountTransaction, error) {
	if _, err := s.store.FindAccountByID(ctx, id); err != nil {
		return nil, err
	}

	var (
		transactions []models.Transaction
		err          error
	)
	if asOf != nil {
		transactions, err = s.store.ListTransactionsForAccountAsOf(ctx, id, *asOf)
	} else {
		transactions, err = s.store.ListTransactionsForAccount(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	annotated := make([]models.AccountTransaction, 0, len(transactions))
	for _, t := range transactions {
		annotated = append(annotated, models.AccountTransaction{
			Transaction: t,
			IsDebit:     t.SourceAccountID == id,
		})
	}
	return annotated, nil
}

// logReadError only reports storage failures; a missing account is the
// caller's concern.
func (s *LedgerService) logReadError(msg string, err error, attrs ...any) {
	if !repository.IsStorageFailure(err) {
		return
	}
	attrs = append(attrs, "error", err.Error())
	s.logger.Error(msg, attrs...)
}
