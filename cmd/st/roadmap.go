package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/ai"
	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/store"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var roadmapCmd = &cobra.Command{
	Use:     "roadmap",
	GroupID: "learn",
	Short:   "Manage the learning roadmap",
}

var (
	flagRoadmapLevel string
	flagRoadmapWeeks int
)

var roadmapGenerateCmd = &cobra.Command{
	Use:   "generate <topics>",
	Short: "Generate a roadmap from comma-separated topics",
	Long: `Generate a learning roadmap via the AI planner and replace the current one.

Without an API key a deterministic starter roadmap is built from the first
two topics. Existing progress on the old roadmap is discarded; XP and
achievements are kept.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		items := a.ai.GenerateRoadmap(cmd.Context(), ai.RoadmapRequest{
			Topics: args[0],
			Level:  flagRoadmapLevel,
			Weeks:  flagRoadmapWeeks,
			Model:  a.assistantModel(),
		})
		nodes := a.store.SetRoadmap(items)

		if !a.ai.Enabled() {
			fmt.Printf("%s No API key configured; using the starter roadmap\n", ui.Warn("!"))
		}
		fmt.Printf("%s Roadmap set (%d nodes)\n\n", ui.Success("✓"), len(nodes))
		printRoadmap(nodes)
	},
}

var roadmapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roadmap nodes with status and prerequisites",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		if len(doc.Roadmap) == 0 {
			fmt.Println("No roadmap yet. Run 'st roadmap generate \"topic a, topic b\"' to create one.")
			return
		}
		printRoadmap(doc.Roadmap)
	},
}

var roadmapSetStatusCmd = &cobra.Command{
	Use:   "set-status <node-id> <not-started|in-progress|done>",
	Short: "Set a node's status",
	Long: `Set a roadmap node's status.

Marking a node done requires all its checklist tasks to be complete and its
challenge to be passed. Completed nodes are read-only; use 'st roadmap
reset' to reopen one.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		before := a.store.ExportState().XP
		if err := a.store.SetNodeStatus(args[0], model.NodeStatus(args[1])); err != nil {
			switch {
			case errors.Is(err, store.ErrNotEligible):
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.Warn("!"), err)
			case errors.Is(err, store.ErrNodeDone):
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.Warn("!"), err)
			default:
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("%s %s is now %s\n", ui.Success("✓"), args[0], ui.StatusBadge(args[1]))
		if gained := a.store.ExportState().XP - before; gained > 0 {
			fmt.Printf("  +%d XP\n", gained)
		}
	},
}

var roadmapResetCmd = &cobra.Command{
	Use:   "reset <node-id>",
	Short: "Reopen a node without refunding its XP",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.store.ResetNode(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s %s reset to %s\n", ui.Success("✓"), args[0], ui.StatusBadge("not-started"))
	},
}

func printRoadmap(nodes []model.RoadmapNode) {
	for _, n := range nodes {
		fmt.Printf("  %-16s %-14s %s %s\n",
			ui.Accent(n.ID),
			ui.StatusBadge(string(n.Status)),
			n.Title,
			ui.Faint(fmt.Sprintf("(%gh, prereqs: %s)", n.EstHours, joinOrNone(n.Prereqs))))
	}
}

func joinOrNone(ss []string) string {
	if len(ss) == 0 {
		return "none"
	}
	out := ss[0]
	for _, s := range ss[1:] {
		out += ", " + s
	}
	return out
}

func init() {
	roadmapGenerateCmd.Flags().StringVar(&flagRoadmapLevel, "level", "beginner", "learner level")
	roadmapGenerateCmd.Flags().IntVar(&flagRoadmapWeeks, "weeks", 6, "roadmap length in weeks")

	roadmapCmd.AddCommand(roadmapGenerateCmd)
	roadmapCmd.AddCommand(roadmapListCmd)
	roadmapCmd.AddCommand(roadmapSetStatusCmd)
	roadmapCmd.AddCommand(roadmapResetCmd)
	rootCmd.AddCommand(roadmapCmd)
}
