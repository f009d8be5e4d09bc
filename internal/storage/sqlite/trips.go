package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

// PutTrip stores a snapshot of trip, replacing any previous snapshot with the same ID.
func (s *SQLiteStore) PutTrip(ctx context.Context, trip *models.Trip) error {
	if trip == nil {
		return fmt.Errorf("failed to put trip: nil trip")
	}

	document, err := encodeTrip(trip)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM trips WHERE share_code = ?
	`, trip.ShareCode).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to check share code: %w", err)
	case owner != trip.ID:
		return storage.ErrShareCodeTaken
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trips (id, share_code, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			share_code = excluded.share_code,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, trip.ID, trip.ShareCode, document, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to put trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTripByShareCode returns the snapshot registered under code.
func (s *SQLiteStore) GetTripByShareCode(ctx context.Context, code string) (*models.Trip, error) {
	var id, document string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document FROM trips WHERE share_code = ?
	`, code).Scan(&id, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trip: %w", err)
	}

	trip, err := decodeTrip(document)
	if err != nil {
		slog.Error("Stored trip is unreadable", "trip_id", id, "error", err)
		return nil, err
	}
	return trip, nil
}
