// ABOUTME: CLI command exporting the whole journal to a zip archive.
// ABOUTME: Writes notes, audio files, and a manifest.json describing them.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/export"
	"github.com/2389-research/memento/internal/models"
)

var exportCmd = &cobra.Command{
	Use:   "export <file.zip>",
	Short: "Export all entries to a zip archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]

	entries, err := globalStore.ListAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	models.SortNewestFirst(entries)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	manifest, err := export.Write(f, entries, time.Now())
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}

	globalLogger.Info("journal exported", "path", path, "entries", manifest.Count, "export_id", manifest.ExportID)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", manifest.Count, path)
	return nil
}
