package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAccountType is returned when a stored code or a text value does
// not name one of the known account types.
var ErrUnknownAccountType = errors.New("unknown account type")

// AccountType classifies an account. The set is closed.
type AccountType int

const (
	AccountTypeAsset AccountType = iota
	AccountTypeExpense
	AccountTypeRevenue
)

// accountTypeCodes is the storage encoding, version 1 of the accounts schema.
// Codes must never be renumbered.
var accountTypeCodes = map[AccountType]int64{
	AccountTypeAsset:   0,
	AccountTypeExpense: 1,
	AccountTypeRevenue: 2,
}

var accountTypeNames = map[AccountType]string{
	AccountTypeAsset:   "Asset",
	AccountTypeExpense: "Expense",
	AccountTypeRevenue: "Revenue",
}

// AccountTypes lists every account type in code order.
func AccountTypes() []AccountType {
	return []AccountType{AccountTypeAsset, AccountTypeExpense, AccountTypeRevenue}
}

// Code returns the integer stored for t.
func (t AccountType) Code() (int64, error) {
	code, ok := accountTypeCodes[t]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAccountType, int(t))
	}
	return code, nil
}

// AccountTypeFromCode decodes a stored integer.
func AccountTypeFromCode(code int64) (AccountType, error) {
	for t, c := range accountTypeCodes {
		if c == code {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: code %d", ErrUnknownAccountType, code)
}

// ParseAccountType parses the text form, ignoring case.
func ParseAccountType(s string) (AccountType, error) {
	for t, name := range accountTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAccountType, s)
}

func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AccountType(%d)", int(t))
}

// Value implements driver.Valuer for AccountType
func (t AccountType) Value() (driver.Value, error) {
	return t.Code()
}

// Scan implements sql.Scanner for AccountType
func (t *AccountType) Scan(value any) error {
	var code int64
	switch v := value.(type) {
	case int64:
		code = v
	case int32:
		code = int64(v)
	case int:
		code = int64(v)
	case nil:
		return errors.New("account type is NULL")
	default:
		return fmt.Errorf("unsupported account type column value %T", value)
	}

	decoded, err := AccountTypeFromCode(code)
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}

func (t AccountType) MarshalJSON() ([]byte, error) {
	name, ok := accountTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAccountType, int(t))
	}
	return json.Marshal(name)
}

func (t *AccountType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAccountType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Account is a named bucket of value. Its balance is never stored; it is
// derived from InitialBalance and the transactions that reference it.
type Account struct {
	ID             int64       `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	AccountType    AccountType `json:"account_type" db:"account_type"`
	InitialBalance int64       `json:"initial_balance" db:"initial_balance"` // in cents
}

// NewAccount holds the attributes of an account that has not been stored yet.
type NewAccount struct {
	Name           string
	AccountType    AccountType
	InitialBalance int64
}

// CreateAccountRequest is the validated input for account creation.
type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	AccountType    string `json:"account_type" validate:"omitempty,oneof=Asset Expense Revenue asset expense revenue"`
	InitialBalance int64  `json:"initial_balance"`
}

// UpdateInitialBalanceRequest carries a corrected opening balance.
type UpdateInitialBalanceRequest struct {
	InitialBalance *int64 `json:"initial_balance" validate:"required"`
}

// AccountSummary pairs an account with a computed balance.
type AccountSummary struct {
	Account
	Balance int64 `json:"balance"`
}
