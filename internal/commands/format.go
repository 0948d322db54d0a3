package commands

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// displayCurrency is used for output only; the ledger itself is currency-agnostic.
const displayCurrency = money.EUR

func formatCents(cents int64) string {
	return money.New(cents, displayCurrency).Display()
}

// formatSigned prefixes credits with "+". Debits already carry "-".
func formatSigned(cents int64) string {
	if cents > 0 {
		return "+" + formatCents(cents)
	}
	return formatCents(cents)
}

// parseAmount converts a major-unit amount such as "12.34" into cents.
func parseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	return d.Shift(2).IntPart(), nil
}
