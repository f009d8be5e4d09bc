package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/money"
)

// Category classifies an expense.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryAccommodation Category = "Accommodation"
	CategoryTransport     Category = "Transport"
	CategoryActivities    Category = "Activities"
	CategoryOther         Category = "Other"
)

var categories = []Category{
	CategoryFood,
	CategoryAccommodation,
	CategoryTransport,
	CategoryActivities,
	CategoryOther,
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", invalid("category", fmt.Sprintf("unknown category %q", s))
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense represents one payment made by a participant on behalf of others.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Title is the short description shown in the expense list.
	Title string `json:"title"`

	// Amount is what the payer spent. Always positive.
	Amount money.Money `json:"amount"`

	// PaidBy is the participant who paid.
	PaidBy Person `json:"paid_by"`

	// SplitAmong are the participants sharing the cost evenly.
	// Order matters: rounding remainders go to the first entries.
	SplitAmong []Person `json:"split_among"`

	// Date is when the expense happened.
	Date time.Time `json:"date"`

	// Category groups the expense in the trip summary.
	Category Category `json:"category"`

	// ReceiptImage is the optional captured receipt, stored opaquely.
	ReceiptImage []byte `json:"receipt_image,omitempty"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`
}

// ExpenseInput is the add-expense form.
type ExpenseInput struct {
	Title        string
	Amount       money.Money
	PaidBy       *Person
	SplitAmong   []Person
	Date         time.Time
	Category     Category
	ReceiptImage []byte
	Notes        string
}

// NewExpense validates the form and builds an Expense with a fresh ID.
// Membership of PaidBy and SplitAmong is checked by Trip.AddExpense.
func NewExpense(in ExpenseInput) (Expense, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Expense{}, invalid("title", "must not be empty")
	}
	if in.Amount <= 0 {
		return Expense{}, invalid("amount", "must be greater than zero")
	}
	if in.PaidBy == nil || in.PaidBy.ID == "" {
		return Expense{}, invalid("paid_by", "a payer must be selected")
	}
	if len(in.SplitAmong) == 0 {
		return Expense{}, invalid("split_among", "select at least one participant")
	}
	seen := make(map[string]bool, len(in.SplitAmong))
	for _, p := range in.SplitAmong {
		if seen[p.ID] {
			return Expense{}, invalid("split_among", fmt.Sprintf("%s selected twice", p.Name))
		}
		seen[p.ID] = true
	}

	category := in.Category
	if category == "" {
		category = CategoryOther
	}
	if !category.Valid() {
		return Expense{}, invalid("category", fmt.Sprintf("unknown category %q", category))
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	splitAmong := make([]Person, len(in.SplitAmong))
	copy(splitAmong, in.SplitAmong)

	return Expense{
		ID:           uuid.New().String(),
		Title:        title,
		Amount:       in.Amount,
		PaidBy:       *in.PaidBy,
		SplitAmong:   splitAmong,
		Date:         date,
		Category:     category,
		ReceiptImage: in.ReceiptImage,
		Notes:        strings.TrimSpace(in.Notes),
	}, nil
}

// Shares returns each split member's share of the amount, aligned with SplitAmong.
func (e Expense) Shares() []money.Money {
	shares, err := e.Amount.Split(len(e.SplitAmong))
	if err != nil {
		// Only reachable for an expense without split members, which NewExpense rejects.
		return nil
	}
	return shares
}

func (e Expense) clone() Expense {
	c := e
	c.SplitAmong = make([]Person, len(e.SplitAmong))
	copy(c.SplitAmong, e.SplitAmong)
	if e.ReceiptImage != nil {
		c.ReceiptImage = make([]byte, len(e.ReceiptImage))
		copy(c.ReceiptImage, e.ReceiptImage)
	}
	return c
}
