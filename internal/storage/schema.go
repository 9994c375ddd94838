// ABOUTME: SQLite schema definition and version bookkeeping for the entries store.
// ABOUTME: Creates tables and indexes on first open and refuses unknown schema versions.
package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

const (
	// SchemaVersion is the schema version this build reads and writes.
	SchemaVersion int64 = 1

	// entriesComponent names the row in memento_versions tracking the entries schema.
	entriesComponent = "entries"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS memento_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL CHECK (type IN ('text', 'audio')),
    created_at INTEGER NOT NULL,
    text TEXT,
    audio_data BLOB,
    mime_type TEXT,
    transcript TEXT,
    categories TEXT NOT NULL DEFAULT '[]',
    embedding BLOB
);

CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries (created_at);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries (type);
`

// schemaVersion returns the recorded version of the entries schema, or 0 for
// a database that has never been initialized.
func schemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var version int64
	err := db.QueryRowContext(ctx, `SELECT version FROM memento_versions WHERE component = ?`, entriesComponent).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read schema version")
	}
	return version, nil
}

// migrate brings a database to target, initializing it if it is new.
func migrate(ctx context.Context, db *sql.DB, target int64) error {
	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	switch {
	case current == target:
		return nil
	case current == 0:
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "begin schema transaction")
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
			return errors.Wrap(err, "create schema")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memento_versions (component, version) VALUES (?, ?)
			 ON CONFLICT(component) DO UPDATE SET version = excluded.version`,
			entriesComponent, target); err != nil {
			return errors.Wrap(err, "record schema version")
		}
		return errors.Wrap(tx.Commit(), "commit schema")
	case current < target:
		return errors.Errorf("schema version %d is older than %d and no migration exists", current, target)
	default:
		return errors.Errorf("schema version %d is newer than supported version %d; upgrade memento", current, target)
	}
}
