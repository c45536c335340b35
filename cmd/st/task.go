package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/ui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "learn",
	Short:   "Manage daily tasks and the completion streak",
}

var (
	flagTaskNode string
	flagTaskDue  string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a daily task",
	Long: `Add a task to the daily list.

--due accepts natural language ("tomorrow", "next friday", "in 2 days") as
well as plain dates.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		var dueAt *time.Time
		if flagTaskDue != "" {
			t, err := parseDue(flagTaskDue)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			dueAt = &t
		}

		task := a.store.AddTask(args[0], flagTaskNode, dueAt)
		fmt.Printf("%s Added task %s\n", ui.Success("✓"), ui.Accent(task.ID))
		if task.DueAt != nil {
			fmt.Printf("  due %s\n", task.DueAt.Local().Format("Mon Jan 2 15:04"))
		}
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List daily tasks",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		if len(doc.Tasks) == 0 {
			fmt.Println("No tasks. Add one with 'st task add \"...\"'.")
			return
		}
		for _, t := range doc.Tasks {
			mark := "[ ]"
			if t.Done {
				mark = ui.Success("[x]")
			}
			line := fmt.Sprintf("  %s %-20s %s", mark, ui.Accent(t.ID), t.Title)
			if t.RelatedNodeID != "" {
				line += ui.Faint(" (" + t.RelatedNodeID + ")")
			}
			if t.DueAt != nil {
				due := "due " + t.DueAt.Local().Format("Jan 2")
				if !t.Done && t.DueAt.Before(time.Now()) {
					line += "  " + ui.Error(due+" (overdue)")
				} else {
					line += "  " + ui.Faint(due)
				}
			}
			fmt.Println(line)
		}
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete a task, earning XP and extending the streak",
	Long: `Mark a task done. Completion awards 50 XP plus a streak bonus (5 XP per
streak day, capped at 25). The streak extends at most once per calendar
day.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		before := a.store.ExportState()
		if err := a.store.CompleteTask(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		after := a.store.ExportState()

		fmt.Printf("%s Task done", ui.Success("✓"))
		if gained := after.XP - before.XP; gained > 0 {
			fmt.Printf("  +%d XP", gained)
		}
		if after.Streak > before.Streak {
			fmt.Printf("  %s", ui.Accent(fmt.Sprintf("streak: %d", after.Streak)))
		}
		fmt.Println()
		for _, ach := range after.Achievements {
			if !before.HasAchievement(ach.ID) {
				fmt.Printf("%s Achievement unlocked: %s\n", ui.Success("★"), ach.Title)
			}
		}
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <task-id>",
	Short: "Flip a task's done flag without XP or streak effects",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.store.ToggleTask(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Toggled %s\n", ui.Success("✓"), args[0])
	},
}

var taskClearCmd = &cobra.Command{
	Use:   "clear-done",
	Short: "Remove all completed tasks",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		n := a.store.ClearDone()
		fmt.Printf("%s Removed %d task(s)\n", ui.Success("✓"), n)
	},
}

// parseDue interprets natural-language and plain dates.
func parseDue(s string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, time.Now()); err == nil && r != nil {
		return r.Time, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not understand due date %q", s)
}

func init() {
	taskAddCmd.Flags().StringVar(&flagTaskNode, "node", "", "related roadmap node id")
	taskAddCmd.Flags().StringVar(&flagTaskDue, "due", "", "due date (natural language accepted)")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskToggleCmd)
	taskCmd.AddCommand(taskClearCmd)
	rootCmd.AddCommand(taskCmd)
}
