package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "learn",
	Short:   "Show level, XP, streak, and sync state",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		info := a.store.LevelInfo()

		done := 0
		for _, n := range doc.Roadmap {
			if n.Status == model.StatusDone {
				done++
			}
		}

		fmt.Println()
		fmt.Printf("%s  Level %d %s\n", ui.Header("skilltrail"), info.Level, ui.Accent(info.Title))
		fmt.Printf("XP:     %d  %s\n", info.XP, ui.ProgressBar(info.Pct, 20))
		fmt.Printf("Nodes:  %d/%d done\n", done, len(doc.Roadmap))
		fmt.Printf("Streak: %d day(s)", doc.Streak)
		if doc.LastCompleted != "" {
			fmt.Printf("  %s", ui.Faint("(last: "+doc.LastCompleted+")"))
		}
		fmt.Println()

		fmt.Printf("Sync:   %s", ui.SyncBadge(a.store.SyncStatus()))
		meta := a.store.LastSync()
		if meta.Version > 0 {
			fmt.Printf("  %s", ui.Faint(fmt.Sprintf("(version %d)", meta.Version)))
		}
		if meta.LastPushAt != nil {
			fmt.Printf("  %s", ui.Faint("pushed "+meta.LastPushAt.Local().Format(time.RFC822)))
		}
		fmt.Println()

		if len(doc.Achievements) > 0 {
			fmt.Printf("\n%s\n", ui.Header("Achievements"))
			for _, ach := range doc.Achievements {
				fmt.Printf("  %s %s  %s\n", ui.Success("★"), ach.Title, ui.Faint(ach.Detail))
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
