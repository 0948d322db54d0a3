// Package importer translates third-party exports into calls against the
// ledger's write API.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
)

// Ledger is the part of the accounting engine an import needs.
type Ledger interface {
	GetAccountByName(ctx context.Context, name string) (*models.Account, error)
	CreateAccount(ctx context.Context, req *models.CreateAccountRequest) (*models.Account, error)
	CreateTransactionByID(ctx context.Context, transaction models.NewTransaction) (*models.Transaction, error)
	UpdateAccountInitialBalance(ctx context.Context, id int64, initialBalance int64) (*models.Account, error)
}

// Firefly III transaction types.
const (
	fireflyWithdrawal     = "Withdrawal"
	fireflyDeposit        = "Deposit"
	fireflyTransfer       = "Transfer"
	fireflyOpeningBalance = "Opening balance"
)

// Firefly III account types and the ledger type each maps to.
const fireflyInitialBalanceAccount = "Initial balance account"

var fireflyAccountTypes = map[string]models.AccountType{
	"Asset account":              models.AccountTypeAsset,
	"Expense account":            models.AccountTypeExpense,
	"Revenue account":            models.AccountTypeRevenue,
	"Loan":                       models.AccountTypeAsset,
	fireflyInitialBalanceAccount: models.AccountTypeAsset,
}

var fireflyColumns = []string{
	"type", "amount", "description", "date",
	"source_name", "source_type", "destination_name", "destination_type",
}

// FireflyRecord is one row of a Firefly III CSV export.
type FireflyRecord struct {
	Type            string
	Amount          decimal.Decimal
	Description     string
	Date            time.Time
	SourceName      string
	SourceType      string
	DestinationName string
	DestinationType string
}

// ParseFirefly reads a Firefly III CSV export. Columns are located by
// header name; extra columns are ignored.
func ParseFirefly(r io.Reader) ([]FireflyRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading firefly CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range fireflyColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("firefly CSV is missing column %q", col)
		}
	}

	var records []FireflyRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading firefly CSV: %w", err)
		}

		rec, err := parseFireflyRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseFireflyRow(row []string, index map[string]int) (FireflyRecord, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	amount, err := decimal.NewFromString(field("amount"))
	if err != nil {
		return FireflyRecord{}, fmt.Errorf("parsing amount %q: %w", field("amount"), err)
	}

	date, err := time.Parse(time.RFC3339, field("date"))
	if err != nil {
		return FireflyRecord{}, fmt.Errorf("parsing date %q: %w", field("date"), err)
	}

	rec := FireflyRecord{
		Type:            field("type"),
		Amount:          amount,
		Description:     field("description"),
		Date:            models.DateOf(date),
		SourceName:      field("source_name"),
		SourceType:      field("source_type"),
		DestinationName: field("destination_name"),
		DestinationType: field("destination_type"),
	}

	switch rec.Type {
	case fireflyWithdrawal, fireflyDeposit, fireflyTransfer, fireflyOpeningBalance:
	default:
		return FireflyRecord{}, fmt.Errorf("unknown transaction type %q", rec.Type)
	}
	for _, t := range []string{rec.SourceType, rec.DestinationType} {
		if _, ok := fireflyAccountTypes[t]; !ok {
			return FireflyRecord{}, fmt.Errorf("unknown account type %q", t)
		}
	}
	return rec, nil
}

// Cents converts a major-unit amount to a positive number of cents.
func Cents(amount decimal.Decimal) int64 {
	return amount.Abs().Shift(2).Round(0).IntPart()
}

// Result summarises one import run.
type Result struct {
	RunID           string
	Transactions    int
	AccountsCreated int
	OpeningBalances int
	Skipped         int
}

type FireflyImporter struct {
	ledger Ledger
	logger *slog.Logger
}

func NewFireflyImporter(ledger Ledger, logger *slog.Logger) *FireflyImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FireflyImporter{ledger: ledger, logger: logger}
}

// Import applies an export to the ledger, oldest row first. Firefly III
// writes the newest row first.
func (im *FireflyImporter) Import(ctx context.Context, r io.Reader) (*Result, error) {
	records, err := ParseFirefly(r)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.New().String()}
	logger := im.logger.With("import_run", result.RunID)

	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if err := im.apply(ctx, rec, result); err != nil {
			return result, fmt.Errorf("importing %q dated %s: %w", rec.Description, rec.Date.Format(models.DateLayout), err)
		}
	}

	logger.Info("firefly import finished",
		"transactions", result.Transactions,
		"accounts_created", result.AccountsCreated,
		"opening_balances", result.OpeningBalances,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (im *FireflyImporter) apply(ctx context.Context, rec FireflyRecord, result *Result) error {
	amount := Cents(rec.Amount)
	if amount == 0 {
		result.Skipped++
		return nil
	}

	if rec.Type == fireflyOpeningBalance {
		return im.applyOpeningBalance(ctx, rec, amount, result)
	}

	source, err := im.getOrCreateAccount(ctx, rec.SourceName, rec.SourceType, result)
	if err != nil {
		return err
	}
	destination, err := im.getOrCreateAccount(ctx, rec.DestinationName, rec.DestinationType, result)
	if err != nil {
		return err
	}

	_, err = im.ledger.CreateTransactionByID(ctx, models.NewTransaction{
		Name:                 rec.Description,
		SourceAccountID:      source.ID,
		DestinationAccountID: destination.ID,
		Amount:               amount,
		Date:                 rec.Date,
	})
	if err != nil {
		return err
	}
	result.Transactions++
	return nil
}

// applyOpeningBalance sets the initial balance of the real account in an
// opening-balance row. Firefly's synthetic initial balance account is not
// created.
func (im *FireflyImporter) applyOpeningBalance(ctx context.Context, rec FireflyRecord, amount int64, result *Result) error {
	name, accountType, balance := rec.DestinationName, rec.DestinationType, amount
	if rec.DestinationType == fireflyInitialBalanceAccount {
		name, accountType, balance = rec.SourceName, rec.SourceType, -amount
	}

	account, err := im.getOrCreateAccount(ctx, name, accountType, result)
	if err != nil {
		return err
	}
	if _, err := im.ledger.UpdateAccountInitialBalance(ctx, account.ID, balance); err != nil {
		return err
	}
	result.OpeningBalances++
	return nil
}

func (im *FireflyImporter) getOrCreateAccount(ctx context.Context, name, fireflyType string, result *Result) (*models.Account, error) {
	account, err := im.ledger.GetAccountByName(ctx, name)
	if err == nil {
		return account, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	account, err = im.ledger.CreateAccount(ctx, &models.CreateAccountRequest{
		Name:        name,
		AccountType: fireflyAccountTypes[fireflyType].String(),
	})
	if err != nil {
		return nil, err
	}
	result.AccountsCreated++
	return account, nil
}
