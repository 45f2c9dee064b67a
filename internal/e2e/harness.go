// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a harness for running tmxsync commands against map files in an
// isolated home directory.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/tmxsync/internal/cli"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	env     map[string]string
}

// NewHarness creates a new E2E test harness with its own HOME, so the
// config file and the backup store never touch the real user directories.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()

	h := &Harness{
		t:       t,
		homeDir: homeDir,
		env:     make(map[string]string),
	}

	h.SetEnv("HOME", homeDir)
	h.SetEnv("TMXSYNC_RESOLVER_MODE", "prompt")
	h.SetEnv("TMXSYNC_OUTPUT_COLOR", "never")
	h.SetEnv("TMXSYNC_BACKUP_LOCATION", filepath.Join(homeDir, "backups"))

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.env[key] = value
	h.t.Setenv(key, value)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// BackupDir returns the directory backups are written to.
func (h *Harness) BackupDir() string {
	return h.env["TMXSYNC_BACKUP_LOCATION"]
}

// Run executes a CLI command with the given arguments and captures the output.
// Standard input is empty, so any prompt reads end of input.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()
	return h.RunWithStdin("", args...)
}

// RunWithStdin executes a CLI command with stdin input and captures output.
// This is useful for answering the line prompt.
func (h *Harness) RunWithStdin(stdin string, args ...string) *Result {
	h.t.Helper()

	// Prepend "tmxsync" as the program name if not provided
	if len(args) == 0 || args[0] != "tmxsync" {
		args = append([]string{"tmxsync"}, args...)
	}

	// Set up stdin
	oldStdin := os.Stdin
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdin pipe: %v", err)
	}
	go func() {
		defer func() {
			_ = stdinW.Close()
		}()
		_, _ = stdinW.WriteString(stdin)
	}()
	os.Stdin = stdinR

	// Capture stdout
	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently so a long report cannot fill the pipe
	// buffer and block the command.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	// Restore stdin and stdout, close writer to signal EOF to reader goroutine
	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdin = oldStdin
	os.Stdout = oldStdout
	_ = stdinR.Close()

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
