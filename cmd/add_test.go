/*
Copyright © 2026 The marksync authors
*/
package cmd

import (
	"testing"
)

func TestAddCmd_Flags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue interface{}
		flagType     string
	}{
		{
			name:         "title flag has correct default",
			flagName:     "title",
			defaultValue: "",
			flagType:     "string",
		},
		{
			name:         "no-wait flag has correct default",
			flagName:     "no-wait",
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
				flag, err = addCmd.Flags().GetString(tt.flagName)
			case "bool":
				flag, err = addCmd.Flags().GetBool(tt.flagName)
			}

			if err != nil {
				t.Fatalf("Failed to get flag %s: %v", tt.flagName, err)
			}

			if flag != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag, tt.defaultValue)
			}
		})
	}

	if addCmd.Flags().Lookup("labels") == nil {
		t.Error("Expected labels flag to be defined")
	}
}

func TestAddCmd_CommandMetadata(t *testing.T) {
	if addCmd.Use != "add <url>" {
		t.Errorf("Expected Use to be 'add <url>', got %s", addCmd.Use)
	}
	if addCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
}

func TestAddCmd_RejectsInvalidURL(t *testing.T) {
	err := runAdd(addCmd, "not a url")
	if err == nil {
		t.Error("Expected an error for an invalid URL")
	}
}
