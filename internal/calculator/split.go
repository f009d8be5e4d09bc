package calculator

import (
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// PersonShare is one split member's part of an expense.
type PersonShare struct {
	Person models.Person
	Amount money.Money
}

// SplitExpense computes how much each split member owes for one expense.
// The amount is split evenly; when it does not divide exactly, the first
// members in SplitAmong order carry one extra unit each, so the shares
// always add up to the expense amount.
func SplitExpense(e models.Expense) []PersonShare {
	shares := e.Shares()
	out := make([]PersonShare, len(shares))
	for i, amount := range shares {
		out[i] = PersonShare{Person: e.SplitAmong[i], Amount: amount}
	}
	return out
}
