/*
Copyright © 2026 The marksync authors
*/
package cmd

import (
	"bytes"
	"testing"
)

func TestRootCmd_Flags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue interface{}
		flagType     string
	}{
		{
			name:         "db flag has correct default",
			flagName:     "db",
			defaultValue: "marksync.db",
			flagType:     "string",
		},
		{
			name:         "server flag has correct default",
			flagName:     "server",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "token flag has correct default",
			flagName:     "token",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "log-file flag has correct default",
			flagName:     "log-file",
			defaultValue: "",
			flagType:     "string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag, err := rootCmd.PersistentFlags().GetString(tt.flagName)
			if err != nil {
				t.Fatalf("Failed to get flag %s: %v", tt.flagName, err)
			}

			if flag != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"add <url>", "sync", "push", "fav <id>", "archive <id>",
		"read <id>", "progress <id> <percent>", "labels <id> [label...]",
		"title <id> <new title>", "rm <id>", "list", "snapshot <id>"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Use] = true
	}

	for _, use := range want {
		if !registered[use] {
			t.Errorf("Expected subcommand %q to be registered", use)
		}
	}
}

func TestRootCmd_UsageOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)

	err := rootCmd.Usage()
	if err != nil {
		t.Errorf("Usage() returned error: %v", err)
	}

	if buf.String() == "" {
		t.Error("Expected usage output, got empty string")
	}
}

func TestRootCmd_CommandMetadata(t *testing.T) {
	if rootCmd.Use != "marksync" {
		t.Errorf("Expected Use to be 'marksync', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
}
