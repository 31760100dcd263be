/*
Copyright © 2026 The marksync authors
*/

// The add command saves a URL to the remote bookmark service and tracks the
// new bookmark locally while the service extracts its content.
//
// The service answers before extraction finishes, so the command upserts a
// local record in the loading state and starts the readiness poller. The
// poller keeps running detached from the command's own context; by default
// the command waits for it so the article content is downloaded before exit.
//
// Example usage:
//
//	marksync add https://example.com/post --title "A post" --labels reading,go
//	marksync add https://example.com/post --no-wait
package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/marksync/internal/core"
	"github.com/example/marksync/internal/core/db"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a URL to the bookmark service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, args[0])
	},
}

func runAdd(cmd *cobra.Command, bookmarkURL string) error {
	if err := db.ValidateBookmarkURL(bookmarkURL); err != nil {
		return err
	}

	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return fmt.Errorf("failed to read --title: %w", err)
	}
	labels, err := cmd.Flags().GetStringSlice("labels")
	if err != nil {
		return fmt.Errorf("failed to read --labels: %w", err)
	}
	noWait, err := cmd.Flags().GetBool("no-wait")
	if err != nil {
		return fmt.Errorf("failed to read --no-wait: %w", err)
	}

	database, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeStore(database)

	client, err := newRemoteClient(cmd)
	if err != nil {
		return err
	}

	id, err := client.CreateBookmark(cmd.Context(), title, bookmarkURL, labels)
	if err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	log.Printf("Created bookmark %s", id)

	// The local record starts in the loading state so observers can show
	// extraction progress right away.
	if err := database.UpsertBookmark(db.Bookmark{
		ID:        id,
		URL:       bookmarkURL,
		Title:     title,
		Type:      db.TypeArticle,
		Labels:    labels,
		State:     db.StateLoading,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return err
	}

	if noWait {
		fmt.Println(id)
		return nil
	}

	syncer := core.NewSyncer(database, client, nil)
	downloader := core.NewDownloader(database, client, core.DefaultContentOptions(), nil)
	supervisor := core.NewSupervisor()

	poller := core.NewPoller(syncer, nil)
	poller.OnContentReady = func(bookmarkID string) {
		supervisor.Go("content-download", func(ctx context.Context) {
			if err := downloader.Download(ctx, bookmarkID); err != nil {
				log.Printf("Content download failed for %s: %v", bookmarkID, err)
			}
		})
	}

	supervisor.Go("readiness-poll", func(ctx context.Context) {
		poller.Poll(ctx, id)
	})
	supervisor.Wait()

	fmt.Println(id)
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().String("title", "", "Title for the new bookmark")
	addCmd.Flags().StringSlice("labels", nil, "Labels for the new bookmark")
	addCmd.Flags().Bool("no-wait", false, "Return immediately without waiting for content extraction")
}
