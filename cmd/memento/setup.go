// ABOUTME: Cobra command for interactive embedding endpoint setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect and validate semantic search settings.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/config"
	"github.com/2389-research/memento/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure semantic search",
	Long:  "Interactive wizard to point memento at an OpenAI-compatible embeddings endpoint.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.APIKey,
	)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Println("Setup cancelled.")
		return nil
	}

	provider, baseURL, embeddingModel, apiKey := final.Result()
	cfg.Embedding.Provider = provider
	cfg.Embedding.BaseURL = baseURL
	cfg.Embedding.Model = embeddingModel
	cfg.Embedding.APIKey = apiKey

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}
