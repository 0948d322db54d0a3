package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage form of a calendar date.
const DateLayout = "2006-01-02"

// NewDate returns the calendar date y-m-d as a UTC midnight time.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the time-of-day of t, keeping the calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Transaction moves Amount from the source account to the destination
// account on Date. Transactions are never edited or removed once stored.
type Transaction struct {
	ID                   int64     `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	SourceAccountID      int64     `json:"source_account_id" db:"source_account_id"`
	DestinationAccountID int64     `json:"destination_account_id" db:"destination_account_id"`
	Amount               int64     `json:"amount" db:"amount"` // in cents
	Date                 time.Time `json:"date" db:"date"`
}

// NewTransaction holds the attributes of a transaction that has not been stored yet.
type NewTransaction struct {
	Name                 string
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               int64
	Date                 time.Time
}

// CreateTransactionRequest names the accounts involved instead of their ids.
// An empty Date means today.
type CreateTransactionRequest struct {
	Name               string `json:"name" validate:"required,max=255"`
	Amount             int64  `json:"amount" validate:"required,gt=0"`
	SourceAccount      string `json:"source_account" validate:"required"`
	DestinationAccount string `json:"destination_account" validate:"required"`
	Date               string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// TransactionResponse is the API rendering of a transaction. Account names
// and the debit flag are filled in when known.
type TransactionResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	SourceAccountID      int64  `json:"source_account_id"`
	SourceAccount        string `json:"source_account,omitempty"`
	DestinationAccountID int64  `json:"destination_account_id"`
	DestinationAccount   string `json:"destination_account,omitempty"`
	Amount               int64  `json:"amount"`
	Date                 string `json:"date"`
	IsDebit              *bool  `json:"is_debit,omitempty"`
	SignedAmount         *int64 `json:"signed_amount,omitempty"`
}

// NewTransactionResponse renders t with a date-only Date.
func NewTransactionResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               t.Amount,
		Date:                 t.Date.Format(DateLayout),
	}
}
