package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) InsertAccount(ctx context.Context, account models.NewAccount) (*models.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) FindAccountByName(ctx context.Context, name string) (*models.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockLedgerStore) ListAccountsByType(ctx context.Context, accountType models.AccountType) ([]models.Account, error) {
	args := m.Called(ctx, accountType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockLedgerStore) UpdateAccountInitialBalance(ctx context.Context, id int64, initialBalance int64) (*models.Account, error) {
	args := m.Called(ctx, id, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) InsertTransaction(ctx context.Context, transaction models.NewTransaction) (*models.Transaction, error) {
	args := m.Called(ctx, transaction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) ListTransactionsForAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) ListTransactionsForAccountAsOf(ctx context.Context, accountID int64, date time.Time) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

// WithinTx runs fn against the mock itself.
func (m *MockLedgerStore) WithinTx(ctx context.Context, fn func(repository.LedgerStore) error) error {
	m.Called(ctx)
	return fn(m)
}
