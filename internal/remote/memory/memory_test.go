package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skilltrail/skilltrail/internal/remote"
)

func TestBackendRoundTrip(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()

	if rec, err := b.Get(ctx, "u1"); err != nil || rec != nil {
		t.Fatalf("empty backend: (%v, %v), want (nil, nil)", rec, err)
	}
	if v, _, err := b.Head(ctx, "u1"); err != nil || v != 0 {
		t.Fatalf("empty head: (%d, %v), want (0, nil)", v, err)
	}

	now := time.Now().UTC()
	err := b.Upsert(ctx, &remote.Record{UserID: "u1", Doc: []byte(`{"xp":1}`), Version: 1, UpdatedAt: now})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rec, err := b.Get(ctx, "u1")
	if err != nil || rec == nil {
		t.Fatalf("get: (%v, %v)", rec, err)
	}
	if rec.Version != 1 || string(rec.Doc) != `{"xp":1}` {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Upsert overwrites: last writer wins.
	_ = b.Upsert(ctx, &remote.Record{UserID: "u1", Doc: []byte(`{"xp":2}`), Version: 2, UpdatedAt: now})
	if v, _, _ := b.Head(ctx, "u1"); v != 2 {
		t.Errorf("head after overwrite = %d, want 2", v)
	}
}

func TestFailNextInjectsOneError(t *testing.T) {
	b := NewBackend()
	boom := errors.New("boom")
	b.FailNext = boom

	if _, err := b.Get(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if _, err := b.Get(context.Background(), "u1"); err != nil {
		t.Errorf("failure should be one-shot, got %v", err)
	}
}

func TestAuthLifecycle(t *testing.T) {
	a := NewAuth()
	ctx := context.Background()

	if u, err := a.CurrentUser(ctx); err != nil || u != nil {
		t.Fatalf("fresh auth should be signed out, got (%v, %v)", u, err)
	}

	u, err := a.SignUp(ctx, "dev@example.com", "hunter22")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := a.SignUp(ctx, "dev@example.com", "other"); !errors.Is(err, remote.ErrEmailTaken) {
		t.Errorf("duplicate signup should return ErrEmailTaken, got %v", err)
	}

	if err := a.SignOut(ctx); err != nil {
		t.Fatalf("signout: %v", err)
	}
	if cur, _ := a.CurrentUser(ctx); cur != nil {
		t.Error("signout should clear the session")
	}

	if _, err := a.SignIn(ctx, "dev@example.com", "wrong"); !errors.Is(err, remote.ErrBadCredentials) {
		t.Errorf("wrong password should return ErrBadCredentials, got %v", err)
	}
	again, err := a.SignIn(ctx, "dev@example.com", "hunter22")
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("signin id = %s, want %s", again.ID, u.ID)
	}
}
