// ABOUTME: CLI commands for journal entries.
// ABOUTME: Provides add, record, list, and show subcommands.
package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389-research/memento/internal/models"
	"github.com/2389-research/memento/internal/search"
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage journal entries",
	Long:  "Add, import, list, and show journal entries.",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a text note",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNoteAdd,
}

var noteRecordCmd = &cobra.Command{
	Use:   "record <audio-file>",
	Short: "Import an audio recording",
	Long:  "Store an existing audio file as a journal entry. The file is copied into the database.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteRecord,
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	RunE:  runNoteList,
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one journal entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteShow,
}

// Flags
var (
	noteCategories string
	noteMIME       string
	noteLimit      int
)

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteRecordCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteShowCmd)

	noteAddCmd.Flags().StringVar(&noteCategories, "categories", "", "Comma-separated categories")
	noteRecordCmd.Flags().StringVar(&noteCategories, "categories", "", "Comma-separated categories")
	noteRecordCmd.Flags().StringVar(&noteMIME, "mime", "", "MIME type of the recording (guessed from the extension if empty)")
	noteListCmd.Flags().StringVar(&noteCategories, "categories", "", "Only entries with any of these comma-separated categories")
	noteListCmd.Flags().IntVar(&noteLimit, "limit", 20, "Maximum number of entries to show (0 for all)")
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("note text is required")
	}

	entry := models.NewTextEntry(text, models.ParseCategories(noteCategories))
	id, err := globalStore.Insert(cmd.Context(), entry)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved note #%d%s\n", id, tags(entry.Categories))
	return nil
}

func runNoteRecord(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("recording %s is empty", path)
	}

	mimeType := noteMIME
	if mimeType == "" {
		mimeType = guessAudioMIME(path)
	}

	entry := models.NewAudioEntry(data, mimeType, models.ParseCategories(noteCategories))
	id, err := globalStore.Insert(cmd.Context(), entry)
	if err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved audio #%d (%s, %d bytes)%s\n", id, mimeType, len(data), tags(entry.Categories))
	return nil
}

func guessAudioMIME(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return models.DefaultAudioMIMEType
	}
	// Drop parameters such as "; codecs=opus"
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func runNoteList(cmd *cobra.Command, args []string) error {
	res, err := globalDispatcher.Search(cmd.Context(), search.Request{
		Categories: models.ParseCategories(noteCategories),
	})
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	printResult(cmd.OutOrStdout(), res, noteLimit)
	return nil
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid entry id %q", args[0])
	}
	entry, err := globalStore.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}
	printEntry(cmd.OutOrStdout(), entry)
	return nil
}
