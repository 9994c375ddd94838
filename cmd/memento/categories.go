// ABOUTME: CLI command listing every category used in the journal.
// ABOUTME: Prints each tag with the number of entries carrying it.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/models"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories in use",
	RunE:  runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	entries, err := globalStore.ListAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	counts := categoryCounts(entries)

	out := cmd.OutOrStdout()
	names := models.UniqueCategories(entries)
	if len(names) == 0 {
		_, _ = fmt.Fprintln(out, "No categories yet.")
		return nil
	}
	for _, c := range names {
		_, _ = fmt.Fprintf(out, "%-20s %d\n", c, counts[c])
	}
	return nil
}

// categoryCounts returns, per tag, how many entries carry it. A tag repeated
// on one entry counts once.
func categoryCounts(entries []*models.Entry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		seen := make(map[string]struct{}, len(e.Categories))
		for _, c := range e.Categories {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			counts[c]++
		}
	}
	return counts
}
