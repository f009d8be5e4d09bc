// Package sqlite provides SQLite-backed implementations of storage.LocalStore
// and storage.TripStore.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

// Ensure SQLiteStore implements both storage interfaces
var (
	_ storage.LocalStore = (*SQLiteStore)(nil)
	_ storage.TripStore  = (*SQLiteStore)(nil)
)

// SQLiteStore implements storage.LocalStore and storage.TripStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; keeps Save strictly ordered
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeTrip(trip *models.Trip) (string, error) {
	data, err := json.Marshal(trip)
	if err != nil {
		return "", fmt.Errorf("failed to encode trip: %w", err)
	}
	return string(data), nil
}

func decodeTrip(document string) (*models.Trip, error) {
	var trip models.Trip
	if err := json.Unmarshal([]byte(document), &trip); err != nil {
		return nil, fmt.Errorf("failed to decode trip: %w", err)
	}
	if trip.ID == "" {
		return nil, fmt.Errorf("failed to decode trip: missing id")
	}
	return &trip, nil
}
