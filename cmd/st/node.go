package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/ai"
	"github.com/skilltrail/skilltrail/internal/model"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var nodeCmd = &cobra.Command{
	Use:     "node",
	GroupID: "learn",
	Short:   "Work on a roadmap node's checklist and challenge",
}

var nodeShowCmd = &cobra.Command{
	Use:   "show <node-id>",
	Short: "Show a node's resources, checklist, and challenge",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		n := doc.Node(args[0])
		if n == nil {
			fmt.Fprintf(os.Stderr, "Error: no such node: %s\n", args[0])
			os.Exit(1)
		}
		det := a.store.EnsureNodeDetails(n.ID)

		fmt.Printf("\n%s  %s\n\n", ui.Header(n.Title), ui.StatusBadge(string(n.Status)))

		fmt.Println(ui.Header("Resources"))
		for _, r := range det.Resources {
			fmt.Printf("  [%s] %-28s %s\n", r.Kind, r.Title, ui.Faint(r.URL))
		}

		fmt.Printf("\n%s\n", ui.Header("Checklist"))
		for _, t := range det.Tasks {
			mark := "[ ]"
			if t.Done {
				mark = ui.Success("[x]")
			}
			fmt.Printf("  %s %-6s %s\n", mark, ui.Accent(t.ID), t.Text)
		}

		fmt.Printf("\n%s\n", ui.Header("Challenge"))
		if len(det.Challenge.Requirements) > 0 {
			for _, r := range det.Challenge.Requirements {
				fmt.Printf("  - %s\n", r)
			}
		} else {
			fmt.Printf("  %s\n", det.Challenge.Prompt)
		}
		if det.Challenge.Passed {
			fmt.Printf("  %s\n", ui.Success("passed"))
		} else {
			fmt.Printf("  %s\n", ui.Faint("not yet passed"))
		}
		fmt.Println()
	},
}

var nodeToggleCmd = &cobra.Command{
	Use:   "toggle <node-id> <task-id>",
	Short: "Toggle one checklist task",
	Long: `Toggle a checklist task on a node.

The first completed task moves a not-started node to in-progress. When
every task is done and the challenge has been passed, the node completes
automatically and awards XP.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		before := a.store.ExportState()
		if err := a.store.ToggleNodeTask(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		after := a.store.ExportState()
		fmt.Printf("%s Toggled %s on %s\n", ui.Success("✓"), args[1], args[0])
		if n := after.Node(args[0]); n != nil && n.Status == model.StatusDone &&
			(before.Node(args[0]) == nil || before.Node(args[0]).Status != model.StatusDone) {
			fmt.Printf("%s Node complete!", ui.Success("★"))
			if gained := after.XP - before.XP; gained > 0 {
				fmt.Printf(" +%d XP", gained)
			}
			fmt.Println()
		}
	},
}

var flagChallengeAnswer string

var nodeChallengeCmd = &cobra.Command{
	Use:   "challenge <node-id>",
	Short: "Submit a challenge answer for AI review",
	Long: `Submit an answer to a node's review challenge.

With --answer the text is submitted directly; otherwise an editor form
opens. A passing review records the pass; if the checklist is already
complete the node finishes and awards XP.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		n := doc.Node(args[0])
		if n == nil {
			fmt.Fprintf(os.Stderr, "Error: no such node: %s\n", args[0])
			os.Exit(1)
		}
		det := a.store.EnsureNodeDetails(n.ID)

		answer := flagChallengeAnswer
		if answer == "" {
			if !ui.IsInteractive() {
				fmt.Fprintln(os.Stderr, "Error: no terminal; pass the answer with --answer")
				os.Exit(1)
			}
			form := huh.NewForm(huh.NewGroup(
				huh.NewText().
					Title("Challenge: " + n.Title).
					Description(challengeDescription(det)).
					Placeholder("Explain the concept; include an example or short code where helpful.").
					Value(&answer),
			))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		if strings.TrimSpace(answer) == "" {
			fmt.Fprintln(os.Stderr, "Error: empty answer")
			os.Exit(1)
		}

		res, err := a.ai.GradeChallenge(cmd.Context(), ai.GradeRequest{
			NodeID: n.ID,
			Title:  n.Title,
			Answer: answer,
			Model:  a.assistantModel(),
			Rubric: det.Challenge.Rubric,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		before := a.store.ExportState().XP
		a.store.SetChallengePassed(n.ID, res.Passed)

		if res.Passed {
			fmt.Printf("%s Passed\n", ui.Success("✓"))
		} else {
			fmt.Printf("%s Not passed\n", ui.Error("✗"))
		}
		fmt.Printf("\n%s\n%s\n", ui.Header("Feedback"), res.Feedback)
		if gained := a.store.ExportState().XP - before; gained > 0 {
			fmt.Printf("\n%s Node complete! +%d XP\n", ui.Success("★"), gained)
		}
	},
}

var flagSpecLevel string

var nodeSpecCmd = &cobra.Command{
	Use:   "spec <node-id>",
	Short: "Generate tailored challenge requirements for a node",
	Long: `Ask the AI tutor for node-specific challenge requirements and a grading
rubric, derived from the node's checklist. Does nothing if the node already
has requirements.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		doc := a.store.ExportState()
		n := doc.Node(args[0])
		if n == nil {
			fmt.Fprintf(os.Stderr, "Error: no such node: %s\n", args[0])
			os.Exit(1)
		}
		det := a.store.EnsureNodeDetails(n.ID)
		if len(det.Challenge.Requirements) > 0 {
			fmt.Printf("%s Node already has challenge requirements\n", ui.Warn("!"))
			return
		}

		tasks := make([]string, 0, len(det.Tasks))
		for _, t := range det.Tasks {
			tasks = append(tasks, t.Text)
		}

		res, err := a.ai.GenerateChallengeSpec(cmd.Context(), ai.SpecRequest{
			Title: n.Title,
			Tasks: tasks,
			Level: flagSpecLevel,
			Model: a.assistantModel(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		a.store.SetChallengeSpec(n.ID, res.Requirements, &res.Rubric)
		fmt.Printf("%s Challenge requirements set:\n", ui.Success("✓"))
		for _, r := range res.Requirements {
			fmt.Printf("  - %s\n", r)
		}
	},
}

func challengeDescription(det model.NodeDetails) string {
	if len(det.Challenge.Requirements) > 0 {
		return "- " + strings.Join(det.Challenge.Requirements, "\n- ")
	}
	return det.Challenge.Prompt
}

func init() {
	nodeChallengeCmd.Flags().StringVar(&flagChallengeAnswer, "answer", "", "answer text (skips the interactive form)")
	nodeSpecCmd.Flags().StringVar(&flagSpecLevel, "level", "beginner", "learner level")

	nodeCmd.AddCommand(nodeShowCmd)
	nodeCmd.AddCommand(nodeToggleCmd)
	nodeCmd.AddCommand(nodeChallengeCmd)
	nodeCmd.AddCommand(nodeSpecCmd)
	rootCmd.AddCommand(nodeCmd)
}
