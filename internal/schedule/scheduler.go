// Package schedule decides when the sync engine runs, so neither the store
// nor the engine needs to know about timing policy.
//
// The scheduler:
//  1. Watches the store's dirty signal and schedules a debounced push;
//     rapid mutations coalesce into one push after a quiet interval.
//  2. Polls the remote version on a fixed interval and pulls only when the
//     remote is strictly ahead of the last known local version.
//  3. Pulls immediately on start and on a focus notification (the
//     "switched devices" case).
//  4. Fires a best-effort push on shutdown without blocking it.
package schedule

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/skilltrail/skilltrail/internal/store"
	syncengine "github.com/skilltrail/skilltrail/internal/sync"
)

// Config holds scheduler timing configuration.
type Config struct {
	// DebounceInterval is the quiet period after the last mutation before
	// a push fires.
	DebounceInterval time.Duration

	// PollInterval is how often to poll the remote version counter.
	PollInterval time.Duration

	// ShutdownPushTimeout bounds the fire-and-forget push on Stop.
	ShutdownPushTimeout time.Duration

	// Logger for scheduler activity.
	Logger *log.Logger
}

// DefaultConfig returns the production intervals.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval:    800 * time.Millisecond,
		PollInterval:        10 * time.Second,
		ShutdownPushTimeout: 5 * time.Second,
		Logger:              log.New(os.Stderr, "[schedule] ", log.LstdFlags),
	}
}

// Scheduler owns the debounce timer and the poll ticker.
type Scheduler struct {
	store  *store.Store
	engine *syncengine.Engine
	config *Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
	focus  chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a scheduler. If config is nil, DefaultConfig() is used.
func New(st *store.Store, engine *syncengine.Engine, config *Config) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[schedule] ", log.LstdFlags)
	}
	return &Scheduler{
		store:  st,
		engine: engine,
		config: config,
		focus:  make(chan struct{}, 1),
	}
}

// Start performs the startup pull and launches the debounce and poll loops.
// It does not block; call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if s.store.AutoSync() {
		if res, err := s.engine.Pull(ctx); err != nil {
			s.config.Logger.Printf("Startup pull failed: %v", err)
		} else if res.Disabled {
			s.config.Logger.Println("Startup pull skipped: sync disabled or signed out")
		}
	}

	s.wg.Add(2)
	go s.debounceLoop(ctx)
	go s.pollLoop(ctx)
	return nil
}

// Stop halts both loops, then fires a best-effort shutdown push. The push
// runs in the background with its own timeout; Stop never waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	if s.store.AutoSync() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownPushTimeout)
			defer cancel()
			if _, err := s.engine.Push(ctx); err != nil {
				s.config.Logger.Printf("Shutdown push failed: %v", err)
			}
		}()
	}
}

// NotifyFocus requests an immediate pull, as after a window refocus or a
// return from another device. Coalesces if one is already queued.
func (s *Scheduler) NotifyFocus() {
	select {
	case s.focus <- struct{}{}:
	default:
	}
}

// NotifyOnline clears a stale offline status. It does not pull; the next
// poll decides whether anything changed.
func (s *Scheduler) NotifyOnline() {
	s.engine.NotifyOnline()
}

// NotifyOffline marks the sync status offline.
func (s *Scheduler) NotifyOffline() {
	s.engine.NotifyOffline()
}

// debounceLoop turns bursts of dirty signals into single pushes.
func (s *Scheduler) debounceLoop(ctx context.Context) {
	defer s.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-s.store.Dirty():
			if timer == nil {
				timer = time.NewTimer(s.config.DebounceInterval)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(s.config.DebounceInterval)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			s.push(ctx)
		}
	}
}

// push runs the debounced push. Disabled sync or a missing session turns
// the push into a no-op that parks the status at idle.
func (s *Scheduler) push(ctx context.Context) {
	if !s.store.AutoSync() {
		s.store.SetSyncStatus(syncengine.StatusIdle)
		return
	}
	res, err := s.engine.Push(ctx)
	if err != nil {
		s.config.Logger.Printf("Push failed: %v", err)
		return
	}
	if res.Disabled {
		s.store.SetSyncStatus(syncengine.StatusIdle)
	}
}

// pollLoop polls the remote version and serves focus pulls.
func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.focus:
			if !s.store.AutoSync() {
				continue
			}
			if _, err := s.engine.Pull(ctx); err != nil {
				s.config.Logger.Printf("Focus pull failed: %v", err)
			}

		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches only the remote version and pulls when it is strictly
// ahead of the last version this device has seen.
func (s *Scheduler) pollOnce(ctx context.Context) {
	if !s.store.AutoSync() {
		return
	}

	version, ok, err := s.engine.RemoteVersion(ctx)
	if err != nil {
		s.config.Logger.Printf("Version poll failed: %v", err)
		return
	}
	if !ok {
		return
	}

	if version > s.store.LastSync().Version {
		if _, err := s.engine.Pull(ctx); err != nil {
			s.config.Logger.Printf("Poll-triggered pull failed: %v", err)
		}
	}
}
