// Package ui holds terminal styling for the CLI. Styles degrade to plain
// text automatically when stdout is not a color-capable terminal.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// IsInteractive reports whether stdout is a terminal. Interactive commands
// fall back to flag-driven behavior when it is false.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// HasColor reports whether the terminal supports color output.
func HasColor() bool {
	return IsInteractive() && termenv.DefaultOutput().Profile != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !HasColor() {
		return s
	}
	return style.Render(s)
}

// Accent highlights a primary value, like a node id or a level title.
func Accent(s string) string { return render(accentStyle, s) }

// Success marks completed or passing output.
func Success(s string) string { return render(successStyle, s) }

// Warn marks output the user should look at, like an ineligible node.
func Warn(s string) string { return render(warnStyle, s) }

// Error marks failures.
func Error(s string) string { return render(errorStyle, s) }

// Faint de-emphasizes secondary detail.
func Faint(s string) string { return render(faintStyle, s) }

// Header styles a section title.
func Header(s string) string { return render(headerStyle, s) }

// ProgressBar renders a fixed-width bar for a ratio in [0, 1].
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return fmt.Sprintf("%s %3.0f%%", Accent(bar), pct*100)
}

// StatusBadge renders a roadmap node status with its conventional color.
func StatusBadge(status string) string {
	switch status {
	case "done":
		return Success("done")
	case "in-progress":
		return Warn("in-progress")
	default:
		return Faint(status)
	}
}

// SyncBadge renders a sync status with its conventional color.
func SyncBadge(status string) string {
	switch status {
	case "synced":
		return Success(status)
	case "pushing", "pulling":
		return Warn(status)
	case "error", "offline":
		return Error(status)
	default:
		return Faint(status)
	}
}
