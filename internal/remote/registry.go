package remote

import (
	"fmt"
	"sync"
)

// Type identifies a profile-store backend implementation.
type Type string

const (
	// TypeTurso is the libSQL/Turso-backed profile store.
	TypeTurso Type = "turso"
	// TypeMemory is the in-memory profile store (tests, offline use).
	TypeMemory Type = "memory"
)

// Options carries backend construction parameters. Fields a backend does
// not use are ignored.
type Options struct {
	// URL is the remote database URL (e.g. libsql://name-org.turso.io).
	URL string
	// AuthToken authenticates against the remote database.
	AuthToken string
	// StateDir is where the backend may keep local state (session file,
	// embedded replica).
	StateDir string
}

// Constructor creates a backend plus its paired auth collaborator.
// Implementations register themselves with Register() from init().
type Constructor func(opts Options) (Backend, Auth, error)

var (
	registry   = make(map[Type]Constructor)
	registryMu sync.RWMutex
)

// Register registers a backend constructor. Called from init() functions in
// implementation packages.
func Register(t Type, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("remote: Register constructor is nil for type %s", t))
	}
	if _, exists := registry[t]; exists {
		panic(fmt.Sprintf("remote: Register called twice for type %s", t))
	}
	registry[t] = constructor
}

// IsRegistered reports whether a constructor exists for the given type.
func IsRegistered(t Type) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, exists := registry[t]
	return exists
}

// RegisteredTypes returns all registered backend types.
func RegisteredTypes() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// New builds the backend and auth collaborator for the given type.
func New(t Type, opts Options) (Backend, Auth, error) {
	registryMu.RLock()
	constructor := registry[t]
	registryMu.RUnlock()

	if constructor == nil {
		return nil, nil, fmt.Errorf("remote: no backend registered for type %q (have %v)", t, RegisteredTypes())
	}
	return constructor(opts)
}
