// Package storage provides abstractions for persistent trip storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tripsplit/internal/models"
)

var (
	// ErrNotFound is returned when no trip matches the lookup.
	ErrNotFound = errors.New("trip not found")

	// ErrShareCodeTaken is returned when a different trip already owns the share code.
	ErrShareCodeTaken = errors.New("share code already used by another trip")
)

// LocalStore persists the single active trip on this device.
// There is exactly one slot: no history, no versions.
type LocalStore interface {
	// Save durably overwrites the slot with a snapshot of trip.
	// The write is complete when Save returns.
	Save(ctx context.Context, trip *models.Trip) error

	// Load returns the last saved trip, or nil when the slot is empty.
	// A corrupt record is logged and reported as an empty slot.
	Load(ctx context.Context) (*models.Trip, error)

	// Clear empties the slot.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// TripStore is the remote ledger's document store, keyed by trip ID and
// addressable by share code.
type TripStore interface {
	// PutTrip overwrites the snapshot stored for trip.ID.
	// Returns ErrShareCodeTaken if another trip already uses trip.ShareCode.
	PutTrip(ctx context.Context, trip *models.Trip) error

	// GetTripByShareCode returns the snapshot for an upper-case share code.
	// Returns ErrNotFound if no trip uses the code.
	GetTripByShareCode(ctx context.Context, code string) (*models.Trip, error)

	// Close releases any resources held by the store.
	Close() error
}
