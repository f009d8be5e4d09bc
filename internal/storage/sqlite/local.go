package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/tripsplit/internal/models"
)

// Save overwrites the active trip slot with a snapshot of trip.
func (s *SQLiteStore) Save(ctx context.Context, trip *models.Trip) error {
	if trip == nil {
		return fmt.Errorf("failed to save trip: nil trip")
	}

	document, err := encodeTrip(trip)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO active_trip (slot, trip_id, document, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			trip_id = excluded.trip_id,
			document = excluded.document,
			saved_at = excluded.saved_at
	`, trip.ID, document, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// Load returns the active trip, or nil if the slot is empty or unreadable.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Trip, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM active_trip WHERE slot = 1
	`).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	trip, err := decodeTrip(document)
	if err != nil {
		slog.Warn("Discarding unreadable local trip", "error", err)
		return nil, nil
	}
	return trip, nil
}

// Clear empties the active trip slot.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM active_trip`); err != nil {
		return fmt.Errorf("failed to clear trip: %w", err)
	}
	return nil
}
