/*
Copyright © 2026 The marksync authors
*/
package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/example/marksync/internal/core"
)

func TestSnapshotCmd_Flags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue interface{}
		flagType     string
	}{
		{
			name:         "timeout flag has correct default",
			flagName:     "timeout",
			defaultValue: core.DefaultSnapshotTimeout,
			flagType:     "duration",
		},
		{
			name:         "wait-selector flag has correct default",
			flagName:     "wait-selector",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "chrome-path flag has correct default",
			flagName:     "chrome-path",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "headful flag has correct default",
			flagName:     "headful",
			defaultValue: false,
			flagType:     "bool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flag interface{}
			var err error

			switch tt.flagType {
			case "string":
				flag, err = snapshotCmd.Flags().GetString(tt.flagName)
			case "bool":
				flag, err = snapshotCmd.Flags().GetBool(tt.flagName)
			case "duration":
				flag, err = snapshotCmd.Flags().GetDuration(tt.flagName)
			}

			if err != nil {
				t.Fatalf("Failed to get flag %s: %v", tt.flagName, err)
			}

			if flag != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag, tt.defaultValue)
			}
		})
	}
}

func TestSnapshotCmd_TimeoutIsDuration(t *testing.T) {
	d, err := snapshotCmd.Flags().GetDuration("timeout")
	if err != nil {
		t.Fatalf("Failed to get timeout flag: %v", err)
	}
	if d <= 0 || d > 5*time.Minute {
		t.Errorf("Expected a sane capture deadline, got %v", d)
	}
}

func TestSnapshotCmd_UsageOutput(t *testing.T) {
	var buf bytes.Buffer
	snapshotCmd.SetOut(&buf)
	snapshotCmd.SetErr(&buf)

	if err := snapshotCmd.Usage(); err != nil {
		t.Errorf("Usage() returned error: %v", err)
	}

	output := buf.String()
	for _, flag := range []string{"--timeout", "--wait-selector", "--chrome-path", "--headful"} {
		if !bytes.Contains([]byte(output), []byte(flag)) {
			t.Errorf("Expected usage to mention %s", flag)
		}
	}
}

func TestListCmd_Flags(t *testing.T) {
	limit, err := listCmd.Flags().GetInt("limit")
	if err != nil {
		t.Fatalf("Failed to get limit flag: %v", err)
	}
	if limit != 0 {
		t.Errorf("Expected limit to default to 0, got %d", limit)
	}
}
