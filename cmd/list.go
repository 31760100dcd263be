/*
Copyright © 2026 The marksync authors
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/marksync/internal/core/db"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List local bookmarks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

func runList(cmd *cobra.Command) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit: %w", err)
	}

	database, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeStore(database)

	bookmarks, err := database.ListBookmarks(limit)
	if err != nil {
		return err
	}

	star := color.New(color.FgYellow)
	dim := color.New(color.Faint)
	pending := color.New(color.FgCyan)

	for _, b := range bookmarks {
		if b.IsLocalDeleted {
			dim.Printf("%s  (deleting) %s\n", b.ID, b.URL)
			continue
		}

		marker := " "
		if b.IsFavorite {
			marker = star.Sprint("★")
		}
		title := b.Title
		if title == "" {
			title = b.URL
		}

		var notes []string
		if b.IsArchived {
			notes = append(notes, "archived")
		}
		if b.State == db.StateLoading {
			notes = append(notes, "loading")
		}
		if b.State == db.StateError {
			notes = append(notes, "extraction failed")
		}
		if b.ReadProgress > 0 {
			notes = append(notes, fmt.Sprintf("%d%%", b.ReadProgress))
		}
		if len(b.Labels) > 0 {
			notes = append(notes, strings.Join(b.Labels, ","))
		}

		count, err := database.CountPendingActions(b.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			notes = append(notes, pending.Sprintf("%d queued", count))
		}

		line := fmt.Sprintf("%s %s  %s", marker, b.ID, title)
		if len(notes) > 0 {
			line += dim.Sprintf("  [%s]", strings.Join(notes, " | "))
		}
		fmt.Println(line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of bookmarks to show (0 = all)")
}
