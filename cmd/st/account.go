package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	syncengine "github.com/skilltrail/skilltrail/internal/sync"
	"github.com/skilltrail/skilltrail/internal/ui"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	GroupID: "sync",
	Short:   "Sign up, sign in, and manage the cloud account",
}

var (
	flagEmail    string
	flagPassword string
)

// credentials resolves email and password from flags, falling back to an
// interactive form on a terminal.
func credentials(confirm bool) (string, string, error) {
	email, password := flagEmail, flagPassword
	if email != "" && password != "" {
		return email, password, nil
	}
	if !ui.IsInteractive() {
		return "", "", fmt.Errorf("no terminal; pass --email and --password")
	}

	fields := []huh.Field{
		huh.NewInput().Title("Email").Value(&email),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
	}
	if confirm {
		var again string
		fields = append(fields, huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&again))
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return "", "", err
		}
		if again != password {
			return "", "", fmt.Errorf("passwords do not match")
		}
		return email, password, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return "", "", err
	}
	return email, password, nil
}

// requireAuth exits when no remote backend is configured.
func requireAuth(a *app) {
	if a.auth == nil {
		fmt.Fprintln(os.Stderr, "Error: cloud sync is not configured; set turso.url in the config file")
		os.Exit(1)
	}
}

var accountSignupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a cloud account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()
		requireAuth(a)

		email, password, err := credentials(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		user, err := a.auth.SignUp(cmd.Context(), email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Signed up as %s\n", ui.Success("✓"), ui.Accent(user.Email))

		// First push publishes the local document so a second device has
		// something to pull.
		if res, err := a.engine.Push(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "%s Initial push failed: %v\n", ui.Warn("!"), err)
		} else if !res.Disabled {
			fmt.Printf("%s Progress uploaded (version %d)\n", ui.Success("✓"), res.Version)
		}
	},
}

var accountSigninCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and pull cloud progress",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()
		requireAuth(a)

		email, password, err := credentials(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		user, err := a.auth.SignIn(cmd.Context(), email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Signed in as %s\n", ui.Success("✓"), ui.Accent(user.Email))

		res, err := a.engine.Pull(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Pull failed: %v\n", ui.Warn("!"), err)
			return
		}
		if res.Imported {
			fmt.Printf("%s Cloud progress restored (version %d)\n", ui.Success("✓"), res.Version)
		} else {
			fmt.Println("No cloud document yet; push with 'st sync push'")
		}
	},
}

var accountSignoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out on this device",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()
		requireAuth(a)

		if err := a.auth.SignOut(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		a.store.SetSyncStatus(syncengine.StatusIdle)
		fmt.Printf("%s Signed out; local progress is untouched\n", ui.Success("✓"))
	},
}

var accountWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()
		requireAuth(a)

		user, err := a.auth.CurrentUser(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if user == nil {
			fmt.Println("Not signed in")
			return
		}
		fmt.Printf("%s (%s)\n", ui.Accent(user.Email), ui.Faint(user.ID))
	},
}

func init() {
	accountCmd.PersistentFlags().StringVar(&flagEmail, "email", "", "account email")
	accountCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "account password")

	accountCmd.AddCommand(accountSignupCmd)
	accountCmd.AddCommand(accountSigninCmd)
	accountCmd.AddCommand(accountSignoutCmd)
	accountCmd.AddCommand(accountWhoamiCmd)
	rootCmd.AddCommand(accountCmd)
}
