package models

// AccountTransaction is a transaction seen from one account.
type AccountTransaction struct {
	Transaction
	IsDebit bool `json:"is_debit"`
}

// SignedAmount is negative for a debit and positive for a credit.
func (at AccountTransaction) SignedAmount() int64 {
	if at.IsDebit {
		return -at.Amount
	}
	return at.Amount
}

// TransactionListing carries transactions together with every account they
// reference, keyed by account id.
type TransactionListing struct {
	Transactions []Transaction     `json:"transactions"`
	Accounts     map[int64]Account `json:"accounts"`
}

// AccountName returns the name of the referenced account, or "" if the
// listing does not contain it.
func (l *TransactionListing) AccountName(id int64) string {
	return l.Accounts[id].Name
}
