// Package remote defines the profile-store and authentication collaborators
// the sync engine talks to.
//
// A profile store is an opaque key-value document service: one record per
// user id holding the full exported document, a monotonic version counter,
// and an update timestamp. Backends register themselves with the package
// registry; the factory builds whichever backend the configuration names.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrDisabled is returned by operations that need a cloud backend when none
// is configured.
var ErrDisabled = errors.New("cloud sync is disabled: no remote backend configured")

// ErrBadCredentials is returned by SignIn when the email or password is wrong.
var ErrBadCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned by SignUp when the email is already registered.
var ErrEmailTaken = errors.New("email is already registered")

// Record is one user's remote profile: the full document plus versioning.
type Record struct {
	UserID    string          `json:"user_id"`
	Doc       json.RawMessage `json:"doc"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Backend is the opaque profile store.
//
// Upsert is insert-or-overwrite keyed by user id: last writer wins. The
// version counter is written by the caller and read back for staleness
// detection only; the backend never rejects a write for a version conflict.
type Backend interface {
	// Get fetches the user's profile record, or (nil, nil) when none exists.
	Get(ctx context.Context, userID string) (*Record, error)

	// Head fetches only the version and update timestamp, for cheap polling.
	// Returns (0, zero time, nil) when no record exists.
	Head(ctx context.Context, userID string) (int64, time.Time, error)

	// Upsert writes the record, overwriting any existing one for the user.
	Upsert(ctx context.Context, rec *Record) error

	// Close releases backend resources.
	Close() error
}

// User is the authenticated identity records are keyed by.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Auth is the authentication collaborator. CurrentUser returns (nil, nil)
// when signed out; the other operations fail with a descriptive error when
// the cloud backend is unconfigured or rejects the credentials.
type Auth interface {
	CurrentUser(ctx context.Context) (*User, error)
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
}
