// ABOUTME: CLI command for one-shot journal search.
// ABOUTME: Runs an exact or semantic query through the search dispatcher.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search journal entries",
	Long: `Search journal entries by substring (exact mode) or by meaning (semantic mode).

Semantic mode ranks entries only when --semantic is set; if embeddings are
unavailable the category-filtered list is shown instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// Flags
var (
	searchMode       string
	searchSemantic   bool
	searchCategories string
	searchLimit      int
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchMode, "mode", "exact", "Search mode: exact or semantic")
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "Enable semantic ranking in semantic mode")
	searchCmd.Flags().StringVar(&searchCategories, "categories", "", "Only entries with any of these comma-separated categories")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results (0 for all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, err := search.ParseMode(searchMode)
	if err != nil {
		return err
	}

	res, err := globalDispatcher.Search(cmd.Context(), search.Request{
		Query:      strings.Join(args, " "),
		Mode:       mode,
		Semantic:   searchSemantic,
		Categories: models.ParseCategories(searchCategories),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResult(cmd.OutOrStdout(), res, searchLimit)
	return nil
}
