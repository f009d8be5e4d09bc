package calculator

import (
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// Balance is one participant's net position.
type Balance struct {
	Person models.Person
	Amount money.Money // Positive = is owed money, Negative = owes money
}

// Balances holds one entry per person in participant insertion order.
type Balances []Balance

// Of returns the balance of the person with the given ID (zero if absent).
func (b Balances) Of(personID string) money.Money {
	for _, bal := range b {
		if bal.Person.ID == personID {
			return bal.Amount
		}
	}
	return 0
}

// Sum adds every balance. With exact splitting this is always zero.
func (b Balances) Sum() money.Money {
	var total money.Money
	for _, bal := range b {
		total = total.Add(bal.Amount)
	}
	return total
}

// AllZero reports whether nobody owes or is owed anything.
func (b Balances) AllZero() bool {
	for _, bal := range b {
		if !bal.Amount.IsZero() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	copy(out, b)
	return out
}

// ComputeBalances reduces a trip's expenses to one net balance per participant.
//
// Algorithm:
//   - Every participant starts at zero
//   - For each expense: the payer is credited the full amount, each split member
//     is debited their share (see SplitExpense)
//
// Expense order does not affect the result. People referenced by an expense but
// missing from the participant list (possible only in a malformed remote snapshot)
// are appended in first-seen order. The function never fails.
func ComputeBalances(trip *models.Trip) Balances {
	if trip == nil {
		return Balances{}
	}

	balances := make(Balances, 0, len(trip.Participants))
	index := make(map[string]int, len(trip.Participants))
	slot := func(p models.Person) int {
		if i, ok := index[p.ID]; ok {
			return i
		}
		index[p.ID] = len(balances)
		balances = append(balances, Balance{Person: p})
		return index[p.ID]
	}

	for _, p := range trip.Participants {
		slot(p)
	}

	for _, e := range trip.Expenses {
		shares := SplitExpense(e)
		if len(shares) == 0 {
			continue
		}

		// Payer paid the full amount
		i := slot(e.PaidBy)
		balances[i].Amount = balances[i].Amount.Add(e.Amount)

		// Each split member owes their share
		for _, s := range shares {
			j := slot(s.Person)
			balances[j].Amount = balances[j].Amount.Sub(s.Amount)
		}
	}

	return balances
}
