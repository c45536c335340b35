package schedule

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/remote"
	"github.com/skilltrail/skilltrail/internal/remote/memory"
	"github.com/skilltrail/skilltrail/internal/store"
	syncengine "github.com/skilltrail/skilltrail/internal/sync"
)

// setupScheduler builds the full local stack with fast test intervals.
func setupScheduler(t *testing.T, debounce, poll time.Duration) (*Scheduler, *store.Store, *memory.Backend) {
	t.Helper()

	st, err := store.New(nil, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	backend := memory.NewBackend()
	auth := memory.NewAuth()
	auth.ForceUser(&remote.User{ID: "u1", Email: "dev@example.com"})

	engine := syncengine.New(st, backend, auth, log.New(io.Discard, "", 0))
	sched := New(st, engine, &Config{
		DebounceInterval:    debounce,
		PollInterval:        poll,
		ShutdownPushTimeout: time.Second,
		Logger:              log.New(io.Discard, "", 0),
	})
	return sched, st, backend
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestDebounceCoalescesMutationsIntoOnePush(t *testing.T) {
	sched, st, backend := setupScheduler(t, 30*time.Millisecond, time.Hour)
	ctx := context.Background()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	// A burst of mutations within the debounce window.
	st.AddXP(10)
	st.AddXP(10)
	st.AddXP(10)

	if !waitFor(t, 2*time.Second, func() bool {
		v, _, _ := backend.Head(ctx, "u1")
		return v > 0
	}) {
		t.Fatal("debounced push never arrived")
	}

	// Let any stray timer fire, then confirm a single push happened.
	time.Sleep(100 * time.Millisecond)
	version, _, _ := backend.Head(ctx, "u1")
	if version != 1 {
		t.Errorf("expected exactly one push, backend at version %d", version)
	}

	rec, _ := backend.Get(ctx, "u1")
	var doc model.Document
	if err := json.Unmarshal(rec.Doc, &doc); err != nil {
		t.Fatalf("pushed doc unreadable: %v", err)
	}
	if doc.XP != 30 {
		t.Errorf("pushed XP = %d, want all three mutations (30)", doc.XP)
	}
}

func TestPollPullsWhenRemoteIsAhead(t *testing.T) {
	sched, st, backend := setupScheduler(t, time.Hour, 20*time.Millisecond)
	ctx := context.Background()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	// Another device publishes version 4.
	remoteDoc := model.NewDocument()
	remoteDoc.XP = 640
	docJSON, _ := json.Marshal(remoteDoc)
	if err := backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: docJSON, Version: 4}); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool {
		return st.ExportState().XP == 640
	}) {
		t.Fatal("poll never pulled the newer remote document")
	}
	if st.LastSync().Version != 4 {
		t.Errorf("version = %d, want 4", st.LastSync().Version)
	}
}

func TestPollSkipsWhenVersionsMatch(t *testing.T) {
	sched, st, backend := setupScheduler(t, time.Hour, 20*time.Millisecond)
	ctx := context.Background()

	docJSON, _ := json.Marshal(model.NewDocument())
	if err := backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: docJSON, Version: 2}); err != nil {
		t.Fatalf("seed backend: %v", err)
	}
	st.SetLastSync(model.SyncMetadata{Version: 2})
	st.AddXP(50) // local-only state a spurious pull would wipe

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	// Startup pulls unconditionally, which overwrites local state; that is
	// the documented behavior. Re-apply the local edit, then verify steady
	// polling leaves it alone.
	st.AddXP(50)
	time.Sleep(200 * time.Millisecond)
	if st.ExportState().XP != 50 {
		t.Errorf("matching versions should not trigger pulls, XP = %d", st.ExportState().XP)
	}
}

func TestFocusTriggersImmediatePull(t *testing.T) {
	sched, st, backend := setupScheduler(t, time.Hour, time.Hour)
	ctx := context.Background()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	remoteDoc := model.NewDocument()
	remoteDoc.XP = 123
	docJSON, _ := json.Marshal(remoteDoc)
	if err := backend.Upsert(ctx, &remote.Record{UserID: "u1", Doc: docJSON, Version: 8}); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	sched.NotifyFocus()
	if !waitFor(t, 2*time.Second, func() bool {
		return st.ExportState().XP == 123
	}) {
		t.Fatal("focus notification never pulled")
	}
}

func TestAutoSyncOffSuppressesPushes(t *testing.T) {
	sched, st, backend := setupScheduler(t, 20*time.Millisecond, time.Hour)
	ctx := context.Background()

	st.SetAutoSync(false)
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	st.AddXP(10)
	time.Sleep(200 * time.Millisecond)
	if v, _, _ := backend.Head(ctx, "u1"); v != 0 {
		t.Errorf("auto-sync off should suppress pushes, backend at version %d", v)
	}

	sched.Stop()
	time.Sleep(100 * time.Millisecond)
	if v, _, _ := backend.Head(ctx, "u1"); v != 0 {
		t.Errorf("shutdown push should also be suppressed, backend at version %d", v)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sched, _, _ := setupScheduler(t, time.Hour, time.Hour)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.Stop()
	sched.Stop()
}
