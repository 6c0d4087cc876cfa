package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations lists schema steps in order. The database's PRAGMA user_version
// records the last applied step, so reopening an existing file only applies
// what is new.
var migrations = []string{
	`CREATE TABLE rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		available  INTEGER NOT NULL DEFAULT 1,
		hour_cost  INTEGER NOT NULL CHECK (hour_cost >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE bookings (
		id            TEXT PRIMARY KEY,
		room_name     TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		calendar_date TEXT NOT NULL,
		start_time    TEXT NOT NULL,
		end_time      TEXT,
		cancelled     INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX idx_bookings_room_name ON bookings (room_name)`,
	`CREATE TABLE operators (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE auth_sessions (
		id          TEXT PRIMARY KEY,
		operator_id TEXT NOT NULL REFERENCES operators (id) ON DELETE CASCADE,
		token       TEXT NOT NULL UNIQUE,
		expires_at  TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		revoked_at  TEXT
	)`,
}

// Migrate applies any schema steps the database has not seen yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var version int
		if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if version < 0 || version > len(migrations) {
			return fmt.Errorf("unexpected schema version %d", version)
		}

		for step := version; step < len(migrations); step++ {
			if _, err := tx.Exec(migrations[step]); err != nil {
				return fmt.Errorf("migration step %d failed: %w", step+1, err)
			}
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	})
}
