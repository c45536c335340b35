package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skilltrail/skilltrail/internal/config"
	"github.com/skilltrail/skilltrail/internal/store"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "data",
	Short:   "Initialize and inspect configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.WriteTemplate(flagDataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s\n", ui.Success("✓"), path)
		fmt.Println("Edit it to add your Turso URL and Anthropic API key.")
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		loader := config.NewLoader(flagDataDir)
		cfg, err := loader.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out, err := config.Show(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
		fmt.Printf("\n%s\n", ui.Faint("database: "+cfg.DBPath()))
	},
}

var settingsCmd = &cobra.Command{
	Use:     "settings",
	GroupID: "data",
	Short:   "Update synced user settings",
}

var (
	flagSettingModel string
	flagSettingTheme string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the assistant model or theme",
	Run: func(cmd *cobra.Command, args []string) {
		if flagSettingModel == "" && flagSettingTheme == "" {
			fmt.Fprintln(os.Stderr, "Error: nothing to set; pass --model or --theme")
			os.Exit(1)
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		var patch store.SettingsPatch
		if flagSettingModel != "" {
			patch.AssistantModel = &flagSettingModel
		}
		if flagSettingTheme != "" {
			patch.Theme = &flagSettingTheme
		}
		a.store.UpdateSettings(patch)

		doc := a.store.ExportState()
		fmt.Printf("%s Settings updated (model: %s, theme: %s)\n",
			ui.Success("✓"), doc.Settings.AssistantModel, doc.Settings.Theme)
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&flagSettingModel, "model", "", "assistant model name")
	settingsSetCmd.Flags().StringVar(&flagSettingTheme, "theme", "", "theme: dark or light")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(settingsCmd)
}
