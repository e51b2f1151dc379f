package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	base := errors.New("unknown field")

	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{"with path", NewConfigError("resq.yaml", base), "config error in resq.yaml: unknown field"},
		{"without path", NewConfigError("", base), "config error: unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if !errors.Is(tt.err, base) {
				t.Error("Expected ConfigError to unwrap to the cause")
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	base := errors.New("listen failed")
	err := NewCommandError("serve", base)

	if got := err.Error(); got != "command serve failed: listen failed" {
		t.Errorf("Unexpected message %q", got)
	}
	if !errors.Is(err, base) {
		t.Error("Expected CommandError to unwrap to the cause")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitOK},
		{"config", fmt.Errorf("load: %w", NewConfigError("x.yaml", errors.New("bad"))), ExitConfig},
		{"rejected", fmt.Errorf("parse: %w", ErrRejected), ExitRejected},
		{"command", NewCommandError("serve", errors.New("boom")), ExitFailure},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, got)
			}
		})
	}
}
