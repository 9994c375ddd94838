// ABOUTME: Cobra command launching the interactive journal browser.
// ABOUTME: Searches run on every keystroke; logs are silenced while the TUI owns the terminal.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/logging"
	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search the journal interactively",
	Long: `Open a full-screen search box over the journal.

  tab     switch between exact and semantic mode
  ctrl+s  turn semantic ranking on or off
  ctrl+f  focus the category chips (arrows move, space toggles)
  esc     quit`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	entries, err := globalStore.ListAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	// Log lines on stderr would tear through the alt screen.
	dispatcher, err := newDispatcher(globalConfig, globalStore, globalMetrics, logging.Discard())
	if err != nil {
		return err
	}

	model := tui.NewBrowseModel(cmd.Context(), dispatcher, models.UniqueCategories(entries))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
