// Command st is a terminal learning tracker: an AI-generated roadmap with
// gated completion, XP and achievements, daily tasks with streaks, and
// optional cloud sync across devices.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
