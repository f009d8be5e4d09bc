package sqlite

import "database/sql"

// schema sets up both the device-side active trip slot and the remote-side
// trip documents. These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS active_trip (
    slot INTEGER PRIMARY KEY CHECK (slot = 1),
    trip_id TEXT NOT NULL,
    document TEXT NOT NULL,
    saved_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
    id TEXT PRIMARY KEY,
    share_code TEXT NOT NULL,
    document TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_trips_share_code ON trips(share_code);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
