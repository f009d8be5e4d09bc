package calculator

import (
	"testing"
	"time"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// newTrip builds a trip for the given names; people are returned in the same order.
func newTrip(t *testing.T, names ...string) (*models.Trip, []models.Person) {
	t.Helper()
	start := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)
	trip, err := models.NewTrip(models.TripInput{
		Name:             "Test Trip",
		ParticipantNames: names,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("NewTrip failed: %v", err)
	}
	return trip, trip.Participants
}

func addExpense(t *testing.T, trip *models.Trip, amount money.Money, payer models.Person, split ...models.Person) models.Expense {
	t.Helper()
	e, err := models.NewExpense(models.ExpenseInput{
		Title:      "Expense",
		Amount:     amount,
		PaidBy:     &payer,
		SplitAmong: split,
		Category:   models.CategoryFood,
	})
	if err != nil {
		t.Fatalf("NewExpense failed: %v", err)
	}
	if err := trip.AddExpense(e); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	return e
}
