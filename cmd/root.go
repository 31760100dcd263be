/*
Copyright © 2026 The marksync authors
*/
package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/marksync/internal/core"
	"github.com/example/marksync/internal/core/db"
	"github.com/example/marksync/internal/remote"
)

var cfgFile string

// errMissingServer is returned when a command needs the remote service but no
// server URL is configured.
var errMissingServer = errors.New("no server configured: set --server, MARKSYNC_SERVER, or the config file")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marksync",
	Short: "Local-first bookmark manager synced with a remote bookmark service",
	Long: `marksync keeps a device-local copy of your bookmarks and lets you
favorite, archive, label, rename, track read progress, and delete them while
offline. Mutations apply locally right away and are queued as pending actions;
"marksync push" replays the queue against the remote service and
"marksync sync" pulls the full remote list and reconciles local state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to the config file (default $HOME/.config/marksync/config.yaml)")
	rootCmd.PersistentFlags().StringP("db", "d", "marksync.db", "Path to the SQLite database file")
	rootCmd.PersistentFlags().StringP("server", "s", "", "Base URL of the remote bookmark service")
	rootCmd.PersistentFlags().StringP("token", "t", "", "API token for the remote bookmark service")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file (rotated) instead of stderr")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "marksync"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MARKSYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Printf("Using config file: %s", viper.ConfigFileUsed())
	}

	if logFile := viper.GetString("log_file"); logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
}

// openStore opens and migrates the local store.
func openStore() (*db.DB, error) {
	database, err := db.NewSQLiteDB(viper.GetString("db"))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func closeStore(database *db.DB) {
	if err := database.Close(); err != nil {
		log.Printf("failed to close database: %v", err)
	}
}

// newRemoteClient builds the remote client from config. The server URL is
// required; the token may be empty for unauthenticated test servers.
func newRemoteClient(cmd *cobra.Command) (*remote.Client, error) {
	server := viper.GetString("server")
	if server == "" {
		return nil, errMissingServer
	}
	return remote.NewClient(server, viper.GetString("token"), nil), nil
}

// registerSyncTrigger wires the store's ActionQueued event — the
// fire-and-forget "run action-sync soon" signal — to a dirty flag the command
// checks after its mutation commits. In this CLI the command process stands in
// for the platform scheduler.
func registerSyncTrigger(database *db.DB) *bool {
	dirty := new(bool)
	database.RegisterEventListener(db.OnActionQueuedEvent, func(event db.Event) error {
		*dirty = true
		return nil
	})
	return dirty
}

// pushIfRequested runs an action-sync pass when the mutation queued work and
// the user did not ask to stay offline. Transient failures are fine: the
// queue keeps the action for the next push.
func pushIfRequested(cmd *cobra.Command, database *db.DB, dirty *bool) {
	offline, err := cmd.Flags().GetBool("offline")
	if err != nil || offline || !*dirty {
		return
	}

	client, err := newRemoteClient(cmd)
	if err != nil {
		log.Printf("Staying offline: %v", err)
		return
	}

	syncer := core.NewSyncer(database, client, nil)
	res := syncer.SyncActions(cmd.Context())
	switch res.Status {
	case core.StatusSuccess:
		log.Printf("Pushed %d action(s) (%d dropped)", res.Applied, res.Dropped)
	case core.StatusNetworkError:
		log.Printf("Push stalled, will retry on next push: %s", res.Message)
	}
}
