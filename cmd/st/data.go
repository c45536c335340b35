package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/ui"
)

var flagFormat string

var exportCmd = &cobra.Command{
	Use:     "export [file]",
	GroupID: "data",
	Short:   "Export the full document as JSON or YAML",
	Long: `Export the document (roadmap, tasks, XP, achievements, settings) to a
file, or stdout when no file is given. --format selects json or yaml; a
file extension of .yaml/.yml implies yaml.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		format := flagFormat
		if len(args) == 1 && format == "" {
			if strings.HasSuffix(args[0], ".yaml") || strings.HasSuffix(args[0], ".yml") {
				format = "yaml"
			}
		}

		var data []byte
		switch format {
		case "", "json":
			data, err = a.store.ExportJSON()
		case "yaml":
			data, err = a.store.ExportYAML()
		default:
			err = fmt.Errorf("unknown format %q (want json or yaml)", format)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(args) == 0 {
			fmt.Println(string(data))
			return
		}
		if err := os.WriteFile(args[0], data, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Exported to %s\n", ui.Success("✓"), args[0])
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "data",
	Short:   "Import a document, replacing local state",
	Long: `Import a previously exported document. Fields are validated and
malformed values coerced; the import replaces the whole local document and
will be pushed by the next sync.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var ok bool
		if strings.HasSuffix(args[0], ".yaml") || strings.HasSuffix(args[0], ".yml") {
			ok = a.store.ImportYAML(data)
		} else {
			ok = a.store.ImportState(data)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: file is not a recognizable document")
			os.Exit(1)
		}

		doc := a.store.ExportState()
		fmt.Printf("%s Imported: %d nodes, %d tasks, %d XP\n",
			ui.Success("✓"), len(doc.Roadmap), len(doc.Tasks), doc.XP)
	},
}

var (
	flagResetEverywhere bool
	flagResetYes        bool
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: "data",
	Short:   "Reset all progress",
	Long: `Reset the document to a fresh state: empty roadmap, no tasks, zero XP,
no achievements.

By default only this device is reset; the next pull would restore cloud
progress. With --everywhere the fresh document is also pushed, wiping the
cloud copy for every device.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if !flagResetYes {
			if !ui.IsInteractive() {
				fmt.Fprintln(os.Stderr, "Error: refusing to reset without --yes on a non-terminal")
				os.Exit(1)
			}
			scope := "this device"
			if flagResetEverywhere {
				scope = "ALL devices (cloud copy included)"
			}
			var confirmed bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title("Reset all progress on " + scope + "?").
					Description("Roadmap, tasks, XP, and achievements will be lost.").
					Value(&confirmed),
			))
			if err := form.Run(); err != nil || !confirmed {
				fmt.Println("Cancelled")
				return
			}
		}

		if flagResetEverywhere {
			// Suspend auto-sync while resetting so the scheduler cannot
			// race the explicit push.
			wasAuto := a.store.AutoSync()
			a.store.SetAutoSync(false)
			a.store.ResetLocal()
			res, err := a.engine.Push(cmd.Context())
			a.store.SetAutoSync(wasAuto)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s Local reset done, but cloud push failed: %v\n", ui.Warn("!"), err)
				os.Exit(1)
			}
			if res.Disabled {
				fmt.Printf("%s Local reset done; no cloud account, nothing pushed\n", ui.Success("✓"))
				return
			}
			fmt.Printf("%s Reset everywhere (version %d)\n", ui.Success("✓"), res.Version)
			return
		}

		a.store.ResetLocal()
		fmt.Printf("%s Local progress reset\n", ui.Success("✓"))
	},
}

func init() {
	exportCmd.Flags().StringVar(&flagFormat, "format", "", "output format: json or yaml")
	resetCmd.Flags().BoolVar(&flagResetEverywhere, "everywhere", false, "also overwrite the cloud copy")
	resetCmd.Flags().BoolVar(&flagResetYes, "yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
}
