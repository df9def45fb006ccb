package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
)

// ErrSchemaTooNew is returned when the database was written by a newer build.
var ErrSchemaTooNew = errors.New("database schema is newer than this build")

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index participation by user for the "my games" lookups.
	`CREATE INDEX IF NOT EXISTS idx_participants_user ON game_participants(user_id)`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int {
	return len(migrations)
}

// Migrate creates the schema and applies pending migrations. A database from
// a newer build is refused rather than opened with missing fields.
func Migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > SchemaVersion() {
		return fmt.Errorf("%w: have %d, support %d", ErrSchemaTooNew, version, SchemaVersion())
	}

	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion())); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return nil
}

// Reset deletes the database file and its WAL side files. All data is lost;
// it exists only for the explicit reset flag.
func Reset(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
