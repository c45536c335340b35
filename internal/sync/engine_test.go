package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/remote"
	"github.com/skilltrail/skilltrail/internal/remote/memory"
	"github.com/skilltrail/skilltrail/internal/store"
)

// setupEngine wires a store, an in-memory backend, and a signed-in user.
func setupEngine(t *testing.T) (*Engine, *store.Store, *memory.Backend, *memory.Auth) {
	t.Helper()

	st, err := store.New(nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	backend := memory.NewBackend()
	auth := memory.NewAuth()
	auth.ForceUser(&remote.User{ID: "u1", Email: "dev@example.com"})

	engine := New(st, backend, auth, log.New(io.Discard, "", 0))
	return engine, st, backend, auth
}

func TestPushIncrementsVersion(t *testing.T) {
	engine, st, backend, _ := setupEngine(t)
	ctx := context.Background()

	st.AddXP(100)

	res, err := engine.Push(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if res.Disabled {
		t.Fatal("push should not be disabled")
	}
	if res.Version != 1 {
		t.Errorf("first push version = %d, want 1", res.Version)
	}

	res, err = engine.Push(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if res.Version != 2 {
		t.Errorf("second push version = %d, want 2", res.Version)
	}

	rec, _ := backend.Get(ctx, "u1")
	if rec == nil || rec.Version != 2 {
		t.Fatal("backend should hold version 2")
	}
	var doc model.Document
	if err := json.Unmarshal(rec.Doc, &doc); err != nil {
		t.Fatalf("pushed doc unreadable: %v", err)
	}
	if doc.XP != 100 {
		t.Errorf("pushed XP = %d, want 100", doc.XP)
	}

	if st.SyncStatus() != StatusSynced {
		t.Errorf("status = %q, want synced", st.SyncStatus())
	}
	meta := st.LastSync()
	if meta.Version != 2 || meta.LastPushAt == nil {
		t.Errorf("sync metadata not recorded: %+v", meta)
	}
}

func TestPushSignedOutIsDisabledNoOp(t *testing.T) {
	engine, st, backend, auth := setupEngine(t)
	ctx := context.Background()
	auth.ForceUser(nil)

	res, err := engine.Push(ctx)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if !res.Disabled {
		t.Error("signed-out push should report disabled")
	}
	if st.SyncStatus() != StatusIdle {
		t.Errorf("disabled push should not touch status, got %q", st.SyncStatus())
	}
	if rec, _ := backend.Get(ctx, "u1"); rec != nil {
		t.Error("disabled push should write nothing")
	}
}

func TestPushErrorSetsErrorStatus(t *testing.T) {
	engine, st, backend, _ := setupEngine(t)
	backend.FailNext = errors.New("connection refused")

	if _, err := engine.Push(context.Background()); err == nil {
		t.Fatal("push should surface the backend error")
	}
	if st.SyncStatus() != StatusError {
		t.Errorf("status = %q, want error", st.SyncStatus())
	}
}

func TestPullOverwritesLocal(t *testing.T) {
	engine, st, backend, _ := setupEngine(t)
	ctx := context.Background()

	remoteDoc := model.NewDocument()
	remoteDoc.XP = 777
	docJSON, _ := json.Marshal(remoteDoc)
	if err := backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: docJSON, Version: 5}); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	st.AddXP(10) // local state that will be discarded

	res, err := engine.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !res.Imported {
		t.Fatal("pull should import the remote document")
	}
	if res.Version != 5 {
		t.Errorf("pulled version = %d, want 5", res.Version)
	}

	doc := st.ExportState()
	if doc.XP != 777 {
		t.Errorf("local XP = %d, want remote 777", doc.XP)
	}
	meta := st.LastSync()
	if meta.Version != 5 || meta.LastPullAt == nil {
		t.Errorf("pull metadata not recorded: %+v", meta)
	}
	if st.SyncStatus() != StatusSynced {
		t.Errorf("status = %q, want synced", st.SyncStatus())
	}
}

func TestPullMissingRemoteIsSuccessfulNoOp(t *testing.T) {
	engine, st, _, _ := setupEngine(t)

	st.AddXP(42)

	res, err := engine.Pull(context.Background())
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if res.Imported {
		t.Error("missing remote should import nothing")
	}
	if st.ExportState().XP != 42 {
		t.Error("local state should be untouched")
	}
	if st.SyncStatus() != StatusSynced {
		t.Errorf("status = %q, want synced", st.SyncStatus())
	}
}

func TestPullMalformedRemoteKeepsLocal(t *testing.T) {
	engine, st, backend, _ := setupEngine(t)
	ctx := context.Background()

	if err := backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: []byte("[]"), Version: 3}); err != nil {
		t.Fatalf("seed backend: %v", err)
	}
	st.AddXP(42)

	res, err := engine.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if res.Imported {
		t.Error("non-object remote doc should not import")
	}
	if st.ExportState().XP != 42 {
		t.Error("local document should survive a malformed remote")
	}
}

func TestRemoteVersion(t *testing.T) {
	engine, _, backend, auth := setupEngine(t)
	ctx := context.Background()

	version, ok, err := engine.RemoteVersion(ctx)
	if err != nil || !ok || version != 0 {
		t.Errorf("empty remote: got (%d, %v, %v), want (0, true, nil)", version, ok, err)
	}

	docJSON, _ := json.Marshal(model.NewDocument())
	_ = backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: docJSON, Version: 9})
	version, ok, err = engine.RemoteVersion(ctx)
	if err != nil || !ok || version != 9 {
		t.Errorf("got (%d, %v, %v), want (9, true, nil)", version, ok, err)
	}

	auth.ForceUser(nil)
	if _, ok, _ := engine.RemoteVersion(ctx); ok {
		t.Error("signed out poll should report not ok")
	}
}

func TestOfflineOnlineTransitions(t *testing.T) {
	engine, st, _, _ := setupEngine(t)

	engine.NotifyOffline()
	if st.SyncStatus() != StatusOffline {
		t.Fatalf("status = %q, want offline", st.SyncStatus())
	}
	engine.NotifyOnline()
	if st.SyncStatus() != StatusSynced {
		t.Errorf("reconnect should clear offline to synced, got %q", st.SyncStatus())
	}

	// NotifyOnline only clears the offline badge; other states stay put.
	st.SetSyncStatus(StatusError)
	engine.NotifyOnline()
	if st.SyncStatus() != StatusError {
		t.Errorf("online notification should not clear error, got %q", st.SyncStatus())
	}
}

func TestNilBackendIsDisabled(t *testing.T) {
	st, err := store.New(nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	engine := New(st, nil, nil, log.New(io.Discard, "", 0))

	if res, err := engine.Push(context.Background()); err != nil || !res.Disabled {
		t.Errorf("push with nil backend: (%+v, %v), want disabled", res, err)
	}
	if res, err := engine.Pull(context.Background()); err != nil || !res.Disabled {
		t.Errorf("pull with nil backend: (%+v, %v), want disabled", res, err)
	}
}
