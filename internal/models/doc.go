// Package models defines the ledger entities for tripsplit.
//
// # Models
//
//   - Person: a trip participant, identified by ID (two people may share a name)
//   - Expense: one payment event, split evenly among selected participants
//   - Trip: the top-level record owning participants and expenses
//
// # Design Principles
//
// 1. **Immutable by convention**: a Person never changes after creation and an Expense
// can only be deleted, never edited. Trip mutators append, remove or replace whole values.
//
// 2. **References by value**: an Expense carries copies of the Person values for its payer
// and split set. Identity is always compared by ID.
//
// 3. **Trip enforces membership**: Expense construction validates the form only; the
// owning Trip checks that payer and split set are participants when the expense is added.
//
// 4. **Stable serialization**: JSON field names are fixed snake_case so older and newer
// builds can read each other's snapshots. Unknown fields are ignored on decode.
package models
