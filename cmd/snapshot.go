/*
Copyright © 2026 The marksync authors
*/

// The snapshot command captures a bookmark's live page with a real
// Chrome/Chromium browser and stores the rendered HTML as the bookmark's
// article content. It is the fallback for bookmarks the remote service could
// not extract (state "error"), or for pages whose extraction dropped content.
//
// Example usage:
//
//	marksync snapshot a1b2c3 --timeout=30s --wait-selector=".article-body"
//	marksync snapshot a1b2c3 --headful --chrome-path="/path/to/chrome"
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/marksync/internal/core"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot <id>",
	Short: "Capture a bookmark's live page as its article content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, args[0])
	},
}

func runSnapshot(cmd *cobra.Command, id string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("failed to read --timeout: %w", err)
	}
	waitSelector, err := cmd.Flags().GetString("wait-selector")
	if err != nil {
		return fmt.Errorf("failed to read --wait-selector: %w", err)
	}
	chromePath, err := cmd.Flags().GetString("chrome-path")
	if err != nil {
		return fmt.Errorf("failed to read --chrome-path: %w", err)
	}
	headful, err := cmd.Flags().GetBool("headful")
	if err != nil {
		return fmt.Errorf("failed to read --headful: %w", err)
	}

	if chromePath == "" && runtime.GOOS == "darwin" {
		chromePath = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	}

	database, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeStore(database)

	return core.SnapshotBookmark(cmd.Context(), database, id, core.SnapshotOptions{
		ChromePath:   chromePath,
		Headless:     !headful,
		Timeout:      timeout,
		WaitSelector: waitSelector,
	})
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().Duration("timeout", core.DefaultSnapshotTimeout, "Per-page capture deadline")
	snapshotCmd.Flags().String("wait-selector", "", "CSS selector to wait for before capturing")
	snapshotCmd.Flags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	snapshotCmd.Flags().Bool("headful", false, "Run Chrome with a visible window")
}
