package calculator

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/sanity-io/litter"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

func checkSettlements(t *testing.T, got []Settlement, want []Settlement) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d settlements, got %d: %s", len(want), len(got), litter.Sdump(got))
	}
	for i := range want {
		if got[i].From.ID != want[i].From.ID || got[i].To.ID != want[i].To.ID || got[i].Amount != want[i].Amount {
			t.Errorf("settlement %d = %s -> %s %d, want %s -> %s %d", i,
				got[i].From.Name, got[i].To.Name, got[i].Amount,
				want[i].From.Name, want[i].To.Name, want[i].Amount)
		}
	}
}

func TestSettleScenarios(t *testing.T) {
	t.Run("one payer, two debtors", func(t *testing.T) {
		trip, p := newTrip(t, "Alice", "Bob", "Carol")
		addExpense(t, trip, 300, p[0], p...)

		checkSettlements(t, Settle(ComputeBalances(trip)), []Settlement{
			{From: p[1], To: p[0], Amount: 100},
			{From: p[2], To: p[0], Amount: 100},
		})
	})

	t.Run("one debtor, two creditors", func(t *testing.T) {
		trip, p := newTrip(t, "Alice", "Bob", "Carol")
		addExpense(t, trip, 300, p[0], p...)
		addExpense(t, trip, 300, p[1], p...)

		checkSettlements(t, Settle(ComputeBalances(trip)), []Settlement{
			{From: p[2], To: p[0], Amount: 100},
			{From: p[2], To: p[1], Amount: 100},
		})
	})

	t.Run("no expenses means all settled", func(t *testing.T) {
		trip, _ := newTrip(t, "Alice", "Bob", "Carol")
		got := Settle(ComputeBalances(trip))
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", got)
		}
	})

	t.Run("largest debtor pays largest creditor first", func(t *testing.T) {
		trip, p := newTrip(t, "Alice", "Bob", "Carol", "Dave")
		addExpense(t, trip, 400000, p[0], p...) // Alice +300k, others -100k
		addExpense(t, trip, 100000, p[1], p[2]) // Bob back to 0, Carol -200k

		// Alice +300k, Bob 0, Carol -200k, Dave -100k
		checkSettlements(t, Settle(ComputeBalances(trip)), []Settlement{
			{From: p[2], To: p[0], Amount: 200000},
			{From: p[3], To: p[0], Amount: 100000},
		})
	})
}

func TestReduceThreshold(t *testing.T) {
	alice := models.NewPerson("Alice")
	bob := models.NewPerson("Bob")
	carol := models.NewPerson("Carol")

	t.Run("balances below minimum payment are settled", func(t *testing.T) {
		got := Settle(Balances{{Person: alice, Amount: 50}, {Person: bob, Amount: -50}})
		if len(got) != 0 {
			t.Errorf("expected no settlements, got %s", litter.Sdump(got))
		}
	})

	t.Run("exactly the minimum payment is recorded", func(t *testing.T) {
		got := Settle(Balances{{Person: alice, Amount: 100}, {Person: bob, Amount: -100}})
		checkSettlements(t, got, []Settlement{{From: bob, To: alice, Amount: 100}})
	})

	t.Run("rounding dust is not transferred", func(t *testing.T) {
		got := Settle(Balances{
			{Person: alice, Amount: 1001},
			{Person: bob, Amount: -967},
			{Person: carol, Amount: -34},
		})
		checkSettlements(t, got, []Settlement{{From: bob, To: alice, Amount: 967}})
	})

	t.Run("custom threshold", func(t *testing.T) {
		got := NewReducer(1).Reduce(Balances{{Person: alice, Amount: 3}, {Person: bob, Amount: -3}})
		checkSettlements(t, got, []Settlement{{From: bob, To: alice, Amount: 3}})
	})
}

func TestReduceTieBreakFollowsInsertionOrder(t *testing.T) {
	p := []models.Person{
		models.NewPerson("A"), models.NewPerson("B"), models.NewPerson("C"), models.NewPerson("D"),
	}
	balances := Balances{
		{Person: p[0], Amount: -500},
		{Person: p[1], Amount: 500},
		{Person: p[2], Amount: -500},
		{Person: p[3], Amount: 500},
	}

	checkSettlements(t, Settle(balances), []Settlement{
		{From: p[0], To: p[1], Amount: 500},
		{From: p[2], To: p[3], Amount: 500},
	})
}

// randomTrip builds a trip with random participants and expenses.
func randomTrip(t *testing.T, r *rand.Rand) *models.Trip {
	t.Helper()
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace"}
	trip, p := newTrip(t, names[:2+r.IntN(len(names)-1)]...)

	for range r.IntN(12) {
		payer := p[r.IntN(len(p))]
		var split []models.Person
		for _, person := range p {
			if r.IntN(2) == 0 {
				split = append(split, person)
			}
		}
		if len(split) == 0 {
			split = append(split, p[r.IntN(len(p))])
		}
		addExpense(t, trip, money.Money(1+r.IntN(2_000_000)), payer, split...)
	}
	return trip
}

func TestSettleProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 2025))
	exact := NewReducer(1)

	for iter := range 300 {
		trip := randomTrip(t, r)
		balances := ComputeBalances(trip)

		// Residual bound: sum of balances within sum(|split|-1) units of zero.
		var bound money.Money
		for _, e := range trip.Expenses {
			bound += money.Money(len(e.SplitAmong) - 1)
		}
		if balances.Sum().Abs() > bound {
			t.Fatalf("iteration %d: balance sum %d exceeds residual bound %d", iter, balances.Sum(), bound)
		}

		settlements := exact.Reduce(balances)

		if len(trip.Participants) > 0 && len(settlements) > len(trip.Participants)-1 {
			t.Errorf("iteration %d: %d settlements for %d participants", iter, len(settlements), len(trip.Participants))
		}
		for _, s := range settlements {
			if s.From.ID == s.To.ID {
				t.Errorf("iteration %d: self payment %s", iter, litter.Sdump(s))
			}
			if s.Amount <= 0 {
				t.Errorf("iteration %d: non-positive settlement %s", iter, litter.Sdump(s))
			}
		}

		applied := ApplySettlements(balances, settlements)
		if !applied.AllZero() {
			t.Fatalf("iteration %d: balances not settled: %s", iter, litter.Sdump(applied))
		}

		if again := exact.Reduce(applied); len(again) != 0 {
			t.Errorf("iteration %d: settling settled balances produced %s", iter, litter.Sdump(again))
		}

		if repeat := exact.Reduce(ComputeBalances(trip)); !reflect.DeepEqual(repeat, settlements) {
			t.Errorf("iteration %d: settlements not deterministic", iter)
		}
	}
}

func TestSettleDefaultThresholdOnRoundAmounts(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for iter := range 200 {
		n := 2 + r.IntN(6)
		balances := make(Balances, n)
		var sum money.Money
		for i := range n - 1 {
			amount := money.Money((r.IntN(2001) - 1000) * 100)
			balances[i] = Balance{Person: models.NewPerson("P"), Amount: amount}
			sum += amount
		}
		balances[n-1] = Balance{Person: models.NewPerson("Last"), Amount: -sum}

		settlements := Settle(balances)
		if len(settlements) > n-1 {
			t.Errorf("iteration %d: %d settlements for %d people", iter, len(settlements), n)
		}
		applied := ApplySettlements(balances, settlements)
		for _, b := range applied {
			if b.Amount.Abs() >= DefaultMinPayment {
				t.Fatalf("iteration %d: balance %d left after settlement: %s", iter, b.Amount, litter.Sdump(applied))
			}
		}
	}
}
