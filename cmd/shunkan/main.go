// cmd/shunkan/main.go
//
// This is the entry point for the shunkan study screen.
// When you run `shunkan` from any directory, this is what executes.
//
// Flow:
// 1. Prepare .shunkan/ (or $SHUNKAN_HOME) and load configuration
// 2. Open storage and load the deck, progress and session
// 3. Launch the TUI

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/shunkan/internal/tui"
	"github.com/kingrea/shunkan/internal/workspace"
)

func main() {
	// Get the current working directory - this is the "project" we're studying in
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ws, err := workspace.Open(ctx, cwd, "tui")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening workspace: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	// tea.NewProgram creates a new bubbletea application
	// tui.NewApp returns our main application model
	p := tea.NewProgram(
		tui.NewApp(ws.Service, tui.WithContext(ctx), tui.WithJournal(ws.Journal)),
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		ws.Logger.Error("tui exited", "err", err)
		ws.Close()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
