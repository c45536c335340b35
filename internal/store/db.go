// Package store owns the canonical learning-tracker document.
//
// The Store is an explicitly owned, injectable state container: callers
// construct one, pass it by reference to the sync engine and scheduler, and
// close it on shutdown. There is no ambient global. All mutations go through
// Store methods, which apply the domain rules from the model package
// atomically and persist every change to durable local storage.
//
// Local storage is an embedded SQLite database holding a single named
// record (the exported document plus sync knobs and a schema version).
// WAL mode keeps concurrent readers cheap; the record is small, so a full
// rewrite per mutation is fine.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// StoreName is the fixed key of the single persisted record.
const StoreName = "skilltrail-store"

// SchemaVersion is the current persisted-record schema. Bump when the
// document shape grows a field that migration must default-fill.
const SchemaVersion = 6

// DB wraps the SQLite connection backing the local store.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDB opens (creating if needed) the local store database at path.
// The caller must Close() it when done.
func OpenDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close store database: %w", err)
	}
	db.conn = nil
	return nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS store (
		name TEXT PRIMARY KEY,
		schema_version INTEGER NOT NULL,
		doc TEXT NOT NULL,
		auto_sync INTEGER NOT NULL DEFAULT 1,
		sync_status TEXT NOT NULL DEFAULT 'idle',
		last_sync TEXT,
		saved_at TEXT NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// Record is the raw persisted shape of the store, before migration.
type Record struct {
	SchemaVersion int
	Doc           []byte
	AutoSync      bool
	SyncStatus    string
	LastSync      []byte
	SavedAt       time.Time
}

// LoadRecord reads the persisted record, or returns (nil, nil) when the
// store has never been saved.
func (db *DB) LoadRecord() (*Record, error) {
	row := db.conn.QueryRow(
		`SELECT schema_version, doc, auto_sync, sync_status, last_sync, saved_at
		 FROM store WHERE name = ?`, StoreName)

	var rec Record
	var autoSync int
	var lastSync sql.NullString
	var savedAt string
	err := row.Scan(&rec.SchemaVersion, &rec.Doc, &autoSync, &rec.SyncStatus, &lastSync, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store record: %w", err)
	}

	rec.AutoSync = autoSync != 0
	if lastSync.Valid {
		rec.LastSync = []byte(lastSync.String)
	}
	if t, err := time.Parse(time.RFC3339, savedAt); err == nil {
		rec.SavedAt = t
	}
	return &rec, nil
}

// SaveRecord upserts the single store record.
func (db *DB) SaveRecord(rec *Record) error {
	autoSync := 0
	if rec.AutoSync {
		autoSync = 1
	}
	var lastSync sql.NullString
	if len(rec.LastSync) > 0 {
		lastSync = sql.NullString{String: string(rec.LastSync), Valid: true}
	}

	query := `
	INSERT INTO store (name, schema_version, doc, auto_sync, sync_status, last_sync, saved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		schema_version = excluded.schema_version,
		doc = excluded.doc,
		auto_sync = excluded.auto_sync,
		sync_status = excluded.sync_status,
		last_sync = excluded.last_sync,
		saved_at = excluded.saved_at
	`
	_, err := db.conn.Exec(query,
		StoreName,
		rec.SchemaVersion,
		string(rec.Doc),
		autoSync,
		rec.SyncStatus,
		lastSync,
		rec.SavedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save store record: %w", err)
	}
	return nil
}
