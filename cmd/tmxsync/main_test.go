package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/klauern/tmxsync/internal/cli"
)

func runCaptured(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := cli.Run(context.Background(), args)

	if closeErr := w.Close(); closeErr != nil {
		t.Fatalf("failed to close pipe writer: %v", closeErr)
	}
	os.Stdout = old

	var buf bytes.Buffer
	if _, copyErr := io.Copy(&buf, r); copyErr != nil {
		t.Fatalf("failed to read captured output: %v", copyErr)
	}
	return buf.String(), err
}

func TestCLIInitialization(t *testing.T) {
	output, err := runCaptured(t, "tmxsync", "--help")
	if err != nil {
		t.Fatalf("CLI initialization failed: %v", err)
	}

	for _, want := range []string{"tmxsync", "USAGE", "COMMANDS", "check", "backups", "--dry-run", "--resolver"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected help output to contain %q, got: %q", want, output)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	output, err := runCaptured(t, "tmxsync", "--version")
	if err != nil {
		t.Fatalf("--version flag failed: %v", err)
	}
	if !strings.Contains(output, "tmxsync") {
		t.Errorf("expected version output to contain 'tmxsync', got: %q", output)
	}
}

func TestUsageError(t *testing.T) {
	_, err := runCaptured(t, "tmxsync", "only-one.tmx")
	if err == nil {
		t.Fatal("a single map should be a usage error")
	}
	if !strings.Contains(err.Error(), "at least 2 map files") {
		t.Errorf("unexpected error: %v", err)
	}
}
