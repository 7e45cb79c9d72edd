package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_Version verifies the version command needs no configuration.
func TestRun_Version(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, []string{"version"}); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
}

// TestRun_InvalidConfig verifies run fails with a missing explicit config.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	missing := filepath.Join(t.TempDir(), "nonexistent.yaml")
	if err := run(ctx, []string{"--config", missing, "list"}); err == nil {
		t.Fatal("run() should fail with a missing config file")
	}
}

// TestRun_UnknownCommand verifies unknown subcommands are rejected.
func TestRun_UnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatal("run() should fail for an unknown command")
	}
}
