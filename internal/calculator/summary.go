package calculator

import (
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category models.Category
	Amount   money.Money
	Percent  int // share of the trip total, truncated
}

// MemberSummary is one participant's totals across the trip.
type MemberSummary struct {
	Person    models.Person
	TotalPaid money.Money // sum of expenses this person paid
	TotalOwed money.Money // sum of this person's shares
	Net       money.Money // TotalPaid - TotalOwed
}

// Summary is the trip overview.
type Summary struct {
	TotalExpenses    money.Money
	ExpenseCount     int
	ParticipantCount int
	AveragePerPerson money.Money // TotalExpenses / participants, truncated
	ByCategory       []CategoryTotal
	Members          []MemberSummary
}

// Summarize computes totals for the trip overview. Categories with no
// spending are omitted; the rest keep display order.
func Summarize(trip *models.Trip) Summary {
	if trip == nil {
		return Summary{}
	}

	s := Summary{
		TotalExpenses:    trip.TotalExpenses(),
		ExpenseCount:     len(trip.Expenses),
		ParticipantCount: len(trip.Participants),
	}
	if s.ParticipantCount > 0 {
		s.AveragePerPerson = s.TotalExpenses / money.Money(s.ParticipantCount)
	}

	byCategory := make(map[models.Category]money.Money)
	for _, e := range trip.Expenses {
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}
	for _, c := range models.Categories() {
		amount, ok := byCategory[c]
		if !ok || amount <= 0 {
			continue
		}
		percent := 0
		if s.TotalExpenses > 0 {
			percent = int(int64(amount) * 100 / int64(s.TotalExpenses))
		}
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: c, Amount: amount, Percent: percent})
	}

	members := make(map[string]*MemberSummary, len(trip.Participants))
	for _, p := range trip.Participants {
		s.Members = append(s.Members, MemberSummary{Person: p})
	}
	for i := range s.Members {
		members[s.Members[i].Person.ID] = &s.Members[i]
	}
	for _, e := range trip.Expenses {
		if m, ok := members[e.PaidBy.ID]; ok {
			m.TotalPaid = m.TotalPaid.Add(e.Amount)
		}
		for _, share := range SplitExpense(e) {
			if m, ok := members[share.Person.ID]; ok {
				m.TotalOwed = m.TotalOwed.Add(share.Amount)
			}
		}
	}
	for i := range s.Members {
		s.Members[i].Net = s.Members[i].TotalPaid.Sub(s.Members[i].TotalOwed)
	}

	return s
}
