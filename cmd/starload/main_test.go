// Package main provides tests for the starload CLI.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leapstack-labs/starload/internal/cli"
	"github.com/leapstack-labs/starload/pkg/core"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "starload") {
		t.Errorf("version output should contain 'starload', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"reset", "load", "history", "statements"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"config", core.ConfigError(cause), 2},
		{"connection", core.ConnectionError(cause), 3},
		{"statement", core.StatementError(core.PhaseStage, 1, "staging_events", cause), 4},
		{"wrapped statement", fmt.Errorf("load: %w", core.StatementError(core.PhaseVerify, 2, "song", cause)), 4},
		{"reporting", core.ReportingError(core.PhaseVerify, 1, "songplay", cause), 1},
		{"plain", cause, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
