// Package money provides the ledger's amount type.
//
// Amounts are whole currency units (the currency has no fractional part), stored as int64.
// Expense amounts are always positive; balances are signed.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
)

// CurrencyCode is the single implicit currency of every ledger.
const CurrencyCode = "IDR"

// Grapheme is the symbol printed in front of formatted amounts.
const Grapheme = "Rp"

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in whole currency units.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Split divides m into n shares that add up to exactly m.
// Every share gets m/n; the remainder is handed out one unit at a time
// starting with the first share.
func (m Money) Split(n int) ([]Money, error) {
	parts, err := gomoney.New(int64(m), CurrencyCode).Split(n)
	if err != nil {
		return nil, fmt.Errorf("failed to split %d into %d shares: %w", m, n, err)
	}
	shares := make([]Money, len(parts))
	for i, p := range parts {
		shares[i] = Money(p.Amount())
	}
	return shares, nil
}

// Format renders m as "Rp1.500.000".
func (m Money) Format() string {
	sign := ""
	if m < 0 {
		sign = "-"
	}
	return sign + Grapheme + humanize.FormatInteger("#.###,", int(m.Abs()))
}

// FormatShort renders large amounts compactly: "Rp1.5M", "Rp150K".
func (m Money) FormatShort() string {
	abs := m.Abs()
	sign := ""
	if m < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%s%.1fM", sign, Grapheme, float64(abs)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%s%.0fK", sign, Grapheme, float64(abs)/1_000)
	default:
		return m.Format()
	}
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return m.Format()
}

// Parse reads a user-entered amount in whole units. A leading currency symbol
// is ignored. '.', ',' and ' ' are always grouping separators, never decimal
// points, so "1,50" reads as 150. Signs are rejected: amounts entered by hand
// are never negative.
func Parse(s string) (Money, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, Grapheme)
	clean = strings.NewReplacer(".", "", ",", "", " ", "").Replace(clean)
	if clean == "" || strings.TrimLeft(clean, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money(v), nil
}
