/*
Copyright © 2026 The marksync authors
*/

// Bookmark mutation commands. Every mutation applies to the local copy
// immediately and queues a pending action; unless --offline is given, the
// command then tries one push so the edit reaches the service while the
// network is up. A failed push is not an error — the action stays queued.
//
// Example usage:
//
//	marksync fav a1b2c3
//	marksync archive a1b2c3 --remove
//	marksync read a1b2c3
//	marksync progress a1b2c3 40
//	marksync labels a1b2c3 go reading
//	marksync title a1b2c3 "A better title"
//	marksync rm a1b2c3
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/marksync/internal/core"
)

// favCmd represents the fav command
var favCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Mark a bookmark as favorite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			remove, err := cmd.Flags().GetBool("remove")
			if err != nil {
				return err
			}
			return q.SetFavorite(args[0], !remove)
		})
	},
}

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a bookmark to the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			remove, err := cmd.Flags().GetBool("remove")
			if err != nil {
				return err
			}
			return q.SetArchived(args[0], !remove)
		})
	},
}

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a bookmark as read (or unread with --unread)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			unread, err := cmd.Flags().GetBool("unread")
			if err != nil {
				return err
			}
			return q.SetRead(args[0], !unread)
		})
	},
}

// progressCmd represents the progress command
var progressCmd = &cobra.Command{
	Use:   "progress <id> <percent>",
	Short: "Record read progress (0-100)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid progress %q: %w", args[1], err)
		}
		return runMutation(cmd, func(q *core.Queue) error {
			return q.SetProgress(args[0], pct)
		})
	},
}

// labelsCmd represents the labels command
var labelsCmd = &cobra.Command{
	Use:   "labels <id> [label...]",
	Short: "Replace a bookmark's labels",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			return q.SetLabels(args[0], args[1:])
		})
	},
}

// titleCmd represents the title command
var titleCmd = &cobra.Command{
	Use:   "title <id> <new title>",
	Short: "Rename a bookmark",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			return q.SetTitle(args[0], strings.Join(args[1:], " "))
		})
	},
}

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a bookmark",
	Long: `Delete a bookmark. The local copy is soft-deleted immediately and a
delete action is queued; any other queued edits for the bookmark are
superseded. The local row disappears once the next full sync confirms the
service no longer has it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMutation(cmd, func(q *core.Queue) error {
			return q.Delete(args[0])
		})
	},
}

// runMutation opens the store, wires the action-queued trigger, runs the
// mutation, and pushes if the network is wanted.
func runMutation(cmd *cobra.Command, mutate func(*core.Queue) error) error {
	database, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeStore(database)

	dirty := registerSyncTrigger(database)

	if err := mutate(core.NewQueue(database)); err != nil {
		return err
	}

	pushIfRequested(cmd, database, dirty)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{favCmd, archiveCmd, readCmd, progressCmd, labelsCmd, titleCmd, rmCmd} {
		c.Flags().Bool("offline", false, "Queue the change without contacting the service")
		rootCmd.AddCommand(c)
	}

	favCmd.Flags().Bool("remove", false, "Remove the favorite mark instead")
	archiveCmd.Flags().Bool("remove", false, "Move the bookmark out of the archive instead")
	readCmd.Flags().Bool("unread", false, "Mark as unread instead")
}
