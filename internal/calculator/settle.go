package calculator

import (
	"sort"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// DefaultMinPayment is the smallest transfer worth recording (Rp100).
const DefaultMinPayment money.Money = 100

// Settlement is a recommended payment: From pays To the Amount.
type Settlement struct {
	From   models.Person
	To     models.Person
	Amount money.Money
}

// Reducer turns net balances into a short list of transfers.
type Reducer struct {
	// MinPayment is the threshold below which a transfer is not recorded and a
	// remaining balance counts as settled. Values below 1 are treated as 1.
	MinPayment money.Money
}

// NewReducer creates a Reducer with the given minimum payment.
func NewReducer(minPayment money.Money) Reducer {
	return Reducer{MinPayment: minPayment}
}

// Settle reduces balances with the default minimum payment.
func Settle(balances Balances) []Settlement {
	return NewReducer(DefaultMinPayment).Reduce(balances)
}

type position struct {
	person models.Person
	amount money.Money // magnitude still to pay or receive
}

// Reduce matches debtors with creditors greedily, largest first.
//
// Algorithm:
//   - Debtors (balance < 0) sorted most negative first, creditors (balance > 0)
//     most positive first; ties keep participant order; zero balances are skipped
//   - Walk both lists: settle = min(debt, credit); record the transfer when it
//     reaches MinPayment; reduce both sides by settle
//   - Move past a debtor or creditor once what is left is below MinPayment
//
// Every step moves at least one cursor, so at most debtors+creditors-1
// transfers are produced. The output is deterministic for a given input order.
func (r Reducer) Reduce(balances Balances) []Settlement {
	minPayment := r.MinPayment
	if minPayment < 1 {
		minPayment = 1
	}

	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.Amount.IsNegative():
			debtors = append(debtors, position{person: b.Person, amount: b.Amount.Abs()})
		case b.Amount.IsPositive():
			creditors = append(creditors, position{person: b.Person, amount: b.Amount})
		}
	}

	// Largest magnitudes first on both sides
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	settlements := []Settlement{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := money.Min(debtor.amount, creditor.amount)
		if amount >= minPayment {
			settlements = append(settlements, Settlement{
				From:   debtor.person,
				To:     creditor.person,
				Amount: amount,
			})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount < minPayment {
			i++
		}
		if creditor.amount < minPayment {
			j++
		}
	}

	return settlements
}

// ApplySettlements returns the balances after every settlement has been paid.
func ApplySettlements(balances Balances, settlements []Settlement) Balances {
	out := balances.Clone()
	for _, s := range settlements {
		for k := range out {
			switch out[k].Person.ID {
			case s.From.ID:
				out[k].Amount = out[k].Amount.Add(s.Amount)
			case s.To.ID:
				out[k].Amount = out[k].Amount.Sub(s.Amount)
			}
		}
	}
	return out
}

// TotalTransferred sums the settlement amounts.
func TotalTransferred(settlements []Settlement) money.Money {
	var total money.Money
	for _, s := range settlements {
		total = total.Add(s.Amount)
	}
	return total
}
