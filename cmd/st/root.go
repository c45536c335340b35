package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/ai"
	"github.com/skilltrail/skilltrail/internal/config"
	"github.com/skilltrail/skilltrail/internal/remote"
	_ "github.com/skilltrail/skilltrail/internal/remote/turso"
	"github.com/skilltrail/skilltrail/internal/store"
	syncengine "github.com/skilltrail/skilltrail/internal/sync"
)

var (
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "st",
	Short: "skilltrail - a learning tracker for your terminal",
	Long: `skilltrail tracks a personal learning roadmap: AI-generated nodes with
checklists and review challenges, XP and achievements for finishing them,
daily tasks with completion streaks, and optional cloud sync so progress
follows you across devices.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log internal activity to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "learn", Title: "Learning:"},
		&cobra.Group{ID: "sync", Title: "Sync & Account:"},
		&cobra.Group{ID: "data", Title: "Data & Config:"},
	)
}

// newLogger returns a logger for internal components. Quiet by default so
// command output stays clean; --verbose turns it on.
func newLogger(prefix string) *log.Logger {
	if flagVerbose {
		return log.New(os.Stderr, prefix, log.LstdFlags)
	}
	return log.New(io.Discard, prefix, 0)
}

// app bundles everything a command might need, opened lazily and torn down
// with Close.
type app struct {
	cfg     *config.Config
	loader  *config.Loader
	store   *store.Store
	backend remote.Backend
	auth    remote.Auth
	engine  *syncengine.Engine
	ai      *ai.Client
}

// openApp loads configuration, opens the local store, and connects the
// remote backend when one is configured. A missing or unreachable remote
// leaves sync disabled instead of failing the command.
func openApp() (*app, error) {
	loader := config.NewLoader(flagDataDir)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	db, err := store.OpenDB(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	st, err := store.New(db, newLogger("[store] "))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, loader: loader, store: st}

	if cfg.Turso.URL != "" {
		backend, auth, err := remote.New(remote.TypeTurso, remote.Options{
			URL:       cfg.Turso.URL,
			AuthToken: cfg.Turso.AuthToken,
			StateDir:  cfg.DataDir,
		})
		switch {
		case errors.Is(err, remote.ErrDisabled):
			// Unconfigured; sync stays off.
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: cloud sync unavailable: %v\n", err)
		default:
			a.backend = backend
			a.auth = auth
		}
	}

	a.engine = syncengine.New(st, a.backend, a.auth, newLogger("[sync] "))
	a.ai = ai.New(cfg.Anthropic.APIKey, newLogger("[ai] "))
	return a, nil
}

func (a *app) Close() {
	if a.backend != nil {
		_ = a.backend.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// assistantModel resolves the model to use: the per-document setting wins,
// then the config file, then the built-in default.
func (a *app) assistantModel() string {
	doc := a.store.ExportState()
	if doc.Settings.AssistantModel != "" {
		return doc.Settings.AssistantModel
	}
	return a.cfg.Anthropic.Model
}
