package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/remote"
	"github.com/skilltrail/skilltrail/internal/store"
)

// Sync status values. Kept as strings because they are persisted and shown
// to the user directly.
const (
	StatusIdle    = "idle"
	StatusPulling = "pulling"
	StatusPushing = "pushing"
	StatusSynced  = "synced"
	StatusOffline = "offline"
	StatusError   = "error"
)

// Engine pushes and pulls the document against a remote profile backend.
//
// The engine never mutates the document directly: a pull goes through the
// store's import path, which re-validates every field, so a malformed
// remote document can never corrupt local state.
type Engine struct {
	store   *store.Store
	backend remote.Backend
	auth    remote.Auth
	logger  *log.Logger
	now     func() time.Time
}

// New creates a sync engine. backend and auth may both be nil, in which
// case every operation reports a disabled result instead of failing.
// If logger is nil, a default logger writing to stderr is used.
func New(st *store.Store, backend remote.Backend, auth remote.Auth, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Engine{
		store:   st,
		backend: backend,
		auth:    auth,
		logger:  logger,
		now:     time.Now,
	}
}

// PushResult reports the outcome of a push.
type PushResult struct {
	// Disabled is true when cloud sync is unconfigured or the user is
	// signed out; the push was a no-op.
	Disabled bool
	// Version is the remote version written by this push.
	Version int64
}

// PullResult reports the outcome of a pull.
type PullResult struct {
	Disabled bool
	// Imported is true when a remote document existed and replaced the
	// local one.
	Imported  bool
	Version   int64
	UpdatedAt time.Time
}

// user resolves the active session, or nil when sync should be a no-op.
func (e *Engine) user(ctx context.Context) (*remote.User, error) {
	if e.backend == nil || e.auth == nil {
		return nil, nil
	}
	return e.auth.CurrentUser(ctx)
}

// Push publishes the local document, overwriting the remote copy.
//
// The remote version is read first and incremented; there is no
// compare-and-swap (see the package comment for the tradeoff).
func (e *Engine) Push(ctx context.Context) (PushResult, error) {
	user, err := e.user(ctx)
	if err != nil {
		return PushResult{}, fmt.Errorf("push: %w", err)
	}
	if user == nil {
		return PushResult{Disabled: true}, nil
	}

	doc := e.store.ExportState()
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return PushResult{}, fmt.Errorf("push: failed to encode document: %w", err)
	}

	e.store.SetSyncStatus(StatusPushing)

	version, _, err := e.backend.Head(ctx, user.ID)
	if err != nil {
		e.store.SetSyncStatus(StatusError)
		return PushResult{}, fmt.Errorf("push: failed to read remote version: %w", err)
	}
	nextVersion := version + 1

	now := e.now().UTC()
	rec := &remote.Record{
		UserID:    user.ID,
		Doc:       docJSON,
		Version:   nextVersion,
		UpdatedAt: now,
	}
	if err := e.backend.Upsert(ctx, rec); err != nil {
		e.store.SetSyncStatus(StatusError)
		return PushResult{}, fmt.Errorf("push: %w", err)
	}

	meta := e.store.LastSync()
	meta.Version = nextVersion
	meta.LastPushAt = &now
	e.store.SetLastSync(meta)
	e.store.SetSyncStatus(StatusSynced)

	e.logger.Printf("Pushed document for %s (version %d)", user.Email, nextVersion)
	return PushResult{Version: nextVersion}, nil
}

// Pull fetches the remote document and overwrites the local one. A missing
// remote record is a successful no-op.
func (e *Engine) Pull(ctx context.Context) (PullResult, error) {
	user, err := e.user(ctx)
	if err != nil {
		return PullResult{}, fmt.Errorf("pull: %w", err)
	}
	if user == nil {
		return PullResult{Disabled: true}, nil
	}

	e.store.SetSyncStatus(StatusPulling)

	rec, err := e.backend.Get(ctx, user.ID)
	if err != nil {
		e.store.SetSyncStatus(StatusError)
		return PullResult{}, fmt.Errorf("pull: %w", err)
	}

	now := e.now().UTC()
	if rec == nil {
		meta := e.store.LastSync()
		meta.LastPullAt = &now
		e.store.SetLastSync(meta)
		e.store.SetSyncStatus(StatusSynced)
		return PullResult{Imported: false}, nil
	}

	imported := e.store.ApplyRemote(rec.Doc)
	serverUpdatedAt := rec.UpdatedAt
	e.store.SetLastSync(model.SyncMetadata{
		Version:         rec.Version,
		LastPullAt:      &now,
		ServerUpdatedAt: &serverUpdatedAt,
	})
	e.store.SetSyncStatus(StatusSynced)

	e.logger.Printf("Pulled document for %s (version %d, imported=%v)", user.Email, rec.Version, imported)
	return PullResult{Imported: imported, Version: rec.Version, UpdatedAt: rec.UpdatedAt}, nil
}

// RemoteVersion polls only the remote version counter. The bool is false
// when sync is disabled or signed out.
func (e *Engine) RemoteVersion(ctx context.Context) (int64, bool, error) {
	user, err := e.user(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("poll: %w", err)
	}
	if user == nil {
		return 0, false, nil
	}

	version, _, err := e.backend.Head(ctx, user.ID)
	if err != nil {
		return 0, false, fmt.Errorf("poll: %w", err)
	}
	return version, true, nil
}

// NotifyOffline records a detected connectivity loss.
func (e *Engine) NotifyOffline() {
	e.store.SetSyncStatus(StatusOffline)
}

// NotifyOnline clears the stale offline badge. Reconnection alone does not
// pull; the scheduler decides when to do that.
func (e *Engine) NotifyOnline() {
	if e.store.SyncStatus() == StatusOffline {
		e.store.SetSyncStatus(StatusSynced)
	}
}
