package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	stdsync "sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/skilltrail/skilltrail/internal/config"
	"github.com/skilltrail/skilltrail/internal/dashboard"
	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/schedule"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Push, pull, and run the background sync daemon",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the local document to the cloud",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		res, err := a.engine.Push(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if res.Disabled {
			fmt.Printf("%s Cloud sync is not configured or you are signed out\n", ui.Warn("!"))
			return
		}
		fmt.Printf("%s Pushed (version %d)\n", ui.Success("✓"), res.Version)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the cloud document, overwriting local state",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		res, err := a.engine.Pull(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		switch {
		case res.Disabled:
			fmt.Printf("%s Cloud sync is not configured or you are signed out\n", ui.Warn("!"))
		case !res.Imported:
			fmt.Printf("%s No cloud document yet; local state unchanged\n", ui.Warn("!"))
		default:
			fmt.Printf("%s Pulled version %d %s\n", ui.Success("✓"), res.Version,
				ui.Faint("(server updated "+res.UpdatedAt.Local().Format(time.RFC822)+")"))
		}
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status and version bookkeeping",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		fmt.Printf("Status:    %s\n", ui.SyncBadge(a.store.SyncStatus()))
		fmt.Printf("Auto-sync: %v\n", a.store.AutoSync())
		meta := a.store.LastSync()
		fmt.Printf("Version:   %d\n", meta.Version)
		if meta.LastPushAt != nil {
			fmt.Printf("Last push: %s\n", meta.LastPushAt.Local().Format(time.RFC822))
		}
		if meta.LastPullAt != nil {
			fmt.Printf("Last pull: %s\n", meta.LastPullAt.Local().Format(time.RFC822))
		}
		if meta.ServerUpdatedAt != nil {
			fmt.Printf("Server:    %s\n", meta.ServerUpdatedAt.Local().Format(time.RFC822))
		}
	},
}

var syncAutoCmd = &cobra.Command{
	Use:   "auto <on|off>",
	Short: "Enable or disable automatic sync",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		switch args[0] {
		case "on":
			a.store.SetAutoSync(true)
		case "off":
			a.store.SetAutoSync(false)
		default:
			fmt.Fprintln(os.Stderr, "Error: expected 'on' or 'off'")
			os.Exit(1)
		}
		fmt.Printf("%s Auto-sync %s\n", ui.Success("✓"), args[0])
	},
}

var flagDaemonDashboard bool

var syncDaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the sync daemon (foreground)",
	Long: `Run the sync scheduler in the foreground.

The daemon pulls on start, pushes local changes after a short debounce, and
polls the cloud version so edits from other devices arrive automatically.
SIGUSR1 (sent by 'st sync focus') triggers an immediate pull. With
--dashboard a WebSocket server
streams live progress to connected clients.

Activity is logged to daemon.log in the data directory, with rotation.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		pidFile := schedule.NewPIDFile(a.cfg.PIDPath())
		if err := pidFile.Acquire(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer pidFile.Release()

		logger := log.New(&lumberjack.Logger{
			Filename:   a.cfg.LogPath(),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}, "[daemon] ", log.LstdFlags)

		schedConfig := func(cfg *config.Config) *schedule.Config {
			return &schedule.Config{
				DebounceInterval:    cfg.Sync.DebounceInterval,
				PollInterval:        cfg.Sync.PollInterval,
				ShutdownPushTimeout: 5 * time.Second,
				Logger:              logger,
			}
		}

		var schedMu stdsync.Mutex
		sched := schedule.New(a.store, a.engine, schedConfig(a.cfg))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := sched.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Editing config.toml while the daemon runs restarts the scheduler
		// with the new intervals; no daemon restart needed.
		a.loader.Watch(func(newCfg *config.Config) {
			if newCfg.Sync == a.cfg.Sync || ctx.Err() != nil {
				return
			}
			logger.Printf("Sync intervals changed (debounce %v, poll %v), restarting scheduler",
				newCfg.Sync.DebounceInterval, newCfg.Sync.PollInterval)
			schedMu.Lock()
			defer schedMu.Unlock()
			sched.Stop()
			a.cfg.Sync = newCfg.Sync
			sched = schedule.New(a.store, a.engine, schedConfig(newCfg))
			if err := sched.Start(ctx); err != nil {
				logger.Printf("Failed to restart scheduler: %v", err)
			}
		})

		var dash *dashboard.Server
		if flagDaemonDashboard {
			dash = dashboard.NewServer(a.cfg.Dashboard.Addr, func() dashboard.ProgressData {
				return progressSnapshot(a)
			}, logger)
			if err := dash.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			go mirrorToDashboard(ctx, a, dash)
			fmt.Printf("Dashboard: http://%s\n", dash.Addr())
		}

		// SIGUSR1 asks for an immediate pull, like a window regaining focus.
		focus := make(chan os.Signal, 1)
		signal.Notify(focus, syscall.SIGUSR1)
		go func() {
			for range focus {
				logger.Println("Focus signal received, pulling")
				schedMu.Lock()
				sched.NotifyFocus()
				schedMu.Unlock()
			}
		}()

		fmt.Printf("%s Sync daemon running (log: %s)\n", ui.Accent("●"), a.cfg.LogPath())
		fmt.Println("Press Ctrl+C to stop")

		<-ctx.Done()
		signal.Stop(focus)
		close(focus)
		schedMu.Lock()
		sched.Stop()
		schedMu.Unlock()
		if dash != nil {
			_ = dash.Stop()
		}
		fmt.Println("\nStopped")
	},
}

var syncFocusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Ask the running daemon to pull immediately",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := schedule.SignalFocus(a.cfg.PIDPath()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Daemon notified\n", ui.Success("✓"))
	},
}

// mirrorToDashboard forwards store changes to dashboard clients. It polls
// the store's generation counter; the daemon is the only writer here so a
// one-second cadence is plenty.
func mirrorToDashboard(ctx context.Context, a *app, dash *dashboard.Server) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	lastGen := a.store.Generation()
	lastStatus := a.store.SyncStatus()
	known := make(map[string]bool)
	for _, ach := range a.store.ExportState().Achievements {
		known[ach.ID] = true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status := a.store.SyncStatus(); status != lastStatus {
				lastStatus = status
				dash.BroadcastSyncStatus(status, a.store.LastSync().Version)
			}
			if gen := a.store.Generation(); gen != lastGen {
				lastGen = gen
				dash.BroadcastProgress(progressSnapshot(a))
				for _, ach := range a.store.ExportState().Achievements {
					if !known[ach.ID] {
						known[ach.ID] = true
						dash.BroadcastAchievement(dashboard.AchievementData{
							ID: ach.ID, Title: ach.Title, Detail: ach.Detail,
						})
					}
				}
			}
		}
	}
}

func progressSnapshot(a *app) dashboard.ProgressData {
	doc := a.store.ExportState()
	info := a.store.LevelInfo()
	done := 0
	for _, n := range doc.Roadmap {
		if n.Status == model.StatusDone {
			done++
		}
	}
	return dashboard.ProgressData{
		XP:        info.XP,
		Level:     info.Level,
		Title:     info.Title,
		Pct:       info.Pct,
		Streak:    doc.Streak,
		NodesDone: done,
		NodeCount: len(doc.Roadmap),
	}
}

func init() {
	syncDaemonCmd.Flags().BoolVar(&flagDaemonDashboard, "dashboard", false, "serve the live WebSocket dashboard")

	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncAutoCmd)
	syncCmd.AddCommand(syncDaemonCmd)
	syncCmd.AddCommand(syncFocusCmd)
	rootCmd.AddCommand(syncCmd)
}
