// Package memory provides an in-memory profile store and auth collaborator.
// It backs tests and lets the rest of the sync stack run without any cloud
// configuration.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skilltrail/skilltrail/internal/remote"
)

func init() {
	remote.Register(remote.TypeMemory, func(remote.Options) (remote.Backend, remote.Auth, error) {
		b := NewBackend()
		return b, NewAuth(), nil
	})
}

// Backend is a map-backed profile store.
type Backend struct {
	mu      sync.Mutex
	records map[string]remote.Record

	// FailNext makes the next operation fail, for error-path tests.
	FailNext error
}

// NewBackend creates an empty in-memory profile store.
func NewBackend() *Backend {
	return &Backend{records: make(map[string]remote.Record)}
}

func (b *Backend) takeFailure() error {
	err := b.FailNext
	b.FailNext = nil
	return err
}

// Get implements remote.Backend.
func (b *Backend) Get(_ context.Context, userID string) (*remote.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return nil, err
	}
	rec, ok := b.records[userID]
	if !ok {
		return nil, nil
	}
	out := rec
	out.Doc = append([]byte(nil), rec.Doc...)
	return &out, nil
}

// Head implements remote.Backend.
func (b *Backend) Head(_ context.Context, userID string) (int64, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return 0, time.Time{}, err
	}
	rec, ok := b.records[userID]
	if !ok {
		return 0, time.Time{}, nil
	}
	return rec.Version, rec.UpdatedAt, nil
}

// Upsert implements remote.Backend.
func (b *Backend) Upsert(_ context.Context, rec *remote.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeFailure(); err != nil {
		return err
	}
	stored := *rec
	stored.Doc = append([]byte(nil), rec.Doc...)
	b.records[rec.UserID] = stored
	return nil
}

// Close implements remote.Backend.
func (b *Backend) Close() error { return nil }

// Auth is an in-memory auth collaborator with plaintext credentials.
// Only for tests; the turso backend does real hashing.
type Auth struct {
	mu        sync.Mutex
	passwords map[string]string // email -> password
	ids       map[string]string // email -> user id
	current   *remote.User
	nextID    int
}

// NewAuth creates an empty in-memory auth collaborator.
func NewAuth() *Auth {
	return &Auth{
		passwords: make(map[string]string),
		ids:       make(map[string]string),
	}
}

// CurrentUser implements remote.Auth.
func (a *Auth) CurrentUser(context.Context) (*remote.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, nil
	}
	u := *a.current
	return &u, nil
}

// SignUp implements remote.Auth.
func (a *Auth) SignUp(_ context.Context, email, password string) (*remote.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.passwords[email]; exists {
		return nil, remote.ErrEmailTaken
	}
	a.nextID++
	id := fmt.Sprintf("u%d", a.nextID)
	a.passwords[email] = password
	a.ids[email] = id
	a.current = &remote.User{ID: id, Email: email}
	u := *a.current
	return &u, nil
}

// SignIn implements remote.Auth.
func (a *Auth) SignIn(_ context.Context, email, password string) (*remote.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stored, exists := a.passwords[email]
	if !exists || stored != password {
		return nil, remote.ErrBadCredentials
	}
	a.current = &remote.User{ID: a.ids[email], Email: email}
	u := *a.current
	return &u, nil
}

// SignOut implements remote.Auth.
func (a *Auth) SignOut(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
	return nil
}

// ForceUser signs in a user directly, bypassing credentials. Test helper.
func (a *Auth) ForceUser(u *remote.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = u
}
