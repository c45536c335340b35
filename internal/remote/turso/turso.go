// Package turso implements the remote profile store on a Turso (libSQL)
// database.
//
// One row per user in the profiles table holds the full document, a version
// counter, and the update timestamp. The upsert is last-writer-wins: the
// version counter only tells pollers that something changed, it is never
// used to reject a concurrent write.
package turso

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/skilltrail/skilltrail/internal/remote"
)

func init() {
	remote.Register(remote.TypeTurso, func(opts Options) (remote.Backend, remote.Auth, error) {
		return New(opts)
	})
}

// Options is re-exported so the constructor signature matches the registry.
type Options = remote.Options

// Backend is the libSQL-backed profile store.
type Backend struct {
	db *sql.DB
}

// New connects to the Turso database named by opts.URL and prepares the
// profile and user tables. The returned Auth keeps its signed-in session in
// a file under opts.StateDir.
func New(opts Options) (*Backend, *Auth, error) {
	if opts.URL == "" {
		return nil, nil, remote.ErrDisabled
	}

	dsn := opts.URL
	if opts.AuthToken != "" {
		sep := "?"
		if u, err := url.Parse(opts.URL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		dsn = opts.URL + sep + "authToken=" + url.QueryEscape(opts.AuthToken)
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open turso database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to reach turso database: %w", err)
	}

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	auth, err := newAuth(db, opts.StateDir)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return b, auth, nil
}

func (b *Backend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize profile schema: %w", err)
	}
	return nil
}

// Get implements remote.Backend.
func (b *Backend) Get(ctx context.Context, userID string) (*remote.Record, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT doc, version, updated_at FROM profiles WHERE user_id = ?`, userID)

	var rec remote.Record
	var doc string
	var updatedAt string
	err := row.Scan(&doc, &rec.Version, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile %s: %w", userID, err)
	}

	rec.UserID = userID
	rec.Doc = []byte(doc)
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

// Head implements remote.Backend. Fetches only version and timestamp so the
// scheduler's poll avoids full-document transfers.
func (b *Backend) Head(ctx context.Context, userID string) (int64, time.Time, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT version, updated_at FROM profiles WHERE user_id = ?`, userID)

	var version int64
	var updatedAt string
	err := row.Scan(&version, &updatedAt)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to poll profile %s: %w", userID, err)
	}

	t, _ := time.Parse(time.RFC3339, updatedAt)
	return version, t, nil
}

// Upsert implements remote.Backend.
func (b *Backend) Upsert(ctx context.Context, rec *remote.Record) error {
	query := `
	INSERT INTO profiles (user_id, doc, version, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		doc = excluded.doc,
		version = excluded.version,
		updated_at = excluded.updated_at
	`
	_, err := b.db.ExecContext(ctx, query,
		rec.UserID,
		string(rec.Doc),
		rec.Version,
		rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", rec.UserID, err)
	}
	return nil
}

// Close implements remote.Backend.
func (b *Backend) Close() error {
	return b.db.Close()
}
