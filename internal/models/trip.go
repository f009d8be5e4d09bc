package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/money"
)

// MinParticipants is the smallest group a trip can be created for.
const MinParticipants = 2

// Trip groups the participants and expenses of one shared-expense session.
// Exactly one Trip is active per device.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	// The remote store overwrites snapshots keyed by this ID.
	ID string `json:"id"`

	// Name is the display name (e.g., "Bali 2025").
	Name string `json:"name"`

	// Participants in insertion order, unique by ID.
	Participants []Person `json:"participants"`

	// Expenses in ledger order (the order they were added).
	Expenses []Expense `json:"expenses"`

	// StartDate and EndDate bound the trip; StartDate <= EndDate.
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// ShareCode is the 6-character code other devices use to join.
	// Generated once at creation and never changed.
	ShareCode string `json:"share_code"`

	// LastUpdated is bumped by every mutation.
	LastUpdated time.Time `json:"last_updated"`
}

// TripInput is the create-trip form.
type TripInput struct {
	Name             string
	ParticipantNames []string
	StartDate        time.Time
	EndDate          time.Time
}

// NewTrip validates the form and creates a trip with fresh IDs and a share code.
// Blank participant names are ignored.
func NewTrip(in TripInput) (*Trip, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}

	var participants []Person
	for _, n := range in.ParticipantNames {
		if strings.TrimSpace(n) == "" {
			continue
		}
		participants = append(participants, NewPerson(n))
	}
	if len(participants) < MinParticipants {
		return nil, invalid("participants", fmt.Sprintf("at least %d people are required", MinParticipants))
	}

	if in.EndDate.Before(in.StartDate) {
		return nil, invalid("end_date", "must not be before the start date")
	}

	return &Trip{
		ID:           uuid.New().String(),
		Name:         name,
		Participants: participants,
		Expenses:     []Expense{},
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		ShareCode:    NewShareCode(),
		LastUpdated:  time.Now(),
	}, nil
}

// ParticipantByName returns the first participant with the given name (case-insensitive).
func (t *Trip) ParticipantByName(name string) (Person, bool) {
	for _, p := range t.Participants {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Person{}, false
}

// AddExpense appends e after checking that its payer and split set are participants.
func (t *Trip) AddExpense(e Expense) error {
	if !containsPerson(t.Participants, e.PaidBy.ID) {
		return fmt.Errorf("%w: payer %s", ErrUnknownParticipant, e.PaidBy.Name)
	}
	for _, p := range e.SplitAmong {
		if !containsPerson(t.Participants, p.ID) {
			return fmt.Errorf("%w: %s", ErrUnknownParticipant, p.Name)
		}
	}
	t.Expenses = append(t.Expenses, e)
	t.LastUpdated = time.Now()
	return nil
}

// DeleteExpense removes the expense with the given ID.
func (t *Trip) DeleteExpense(id string) error {
	for i, e := range t.Expenses {
		if e.ID == id {
			t.Expenses = append(t.Expenses[:i:i], t.Expenses[i+1:]...)
			t.LastUpdated = time.Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
}

// Expense looks up an expense by ID.
func (t *Trip) Expense(id string) (Expense, bool) {
	for _, e := range t.Expenses {
		if e.ID == id {
			return e, true
		}
	}
	return Expense{}, false
}

// TotalExpenses sums every expense amount.
func (t *Trip) TotalExpenses() money.Money {
	amounts := make([]money.Money, len(t.Expenses))
	for i, e := range t.Expenses {
		amounts[i] = e.Amount
	}
	return money.Sum(amounts...)
}

// Clone returns a deep copy safe to hand to another goroutine.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	c.Participants = make([]Person, len(t.Participants))
	copy(c.Participants, t.Participants)
	c.Expenses = make([]Expense, len(t.Expenses))
	for i, e := range t.Expenses {
		c.Expenses[i] = e.clone()
	}
	return &c
}
