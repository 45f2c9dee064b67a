// Package ui provides terminal UI utilities for tmxsync.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/klauern/tmxsync/internal/sync"
)

// Color function types for styled output.
var (
	// Success is used for successful operations (green).
	Success = color.New(color.FgGreen).SprintFunc()
	// Error is used for errors and failures (red).
	Error = color.New(color.FgRed).SprintFunc()
	// Warning is used for warnings and cautions (yellow).
	Warning = color.New(color.FgYellow).SprintFunc()
	// Info is used for informational messages (cyan).
	Info = color.New(color.FgCyan).SprintFunc()
	// Bold is used for emphasis (bold white).
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information (faint).
	Dim = color.New(color.Faint).SprintFunc()
	// Header is used for section headers (bold cyan).
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Status symbols with colors.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
)

// StatusSuccess returns a green checkmark with optional message.
func StatusSuccess(msg string) string {
	if msg == "" {
		return Success(SymbolSuccess)
	}
	return Success(SymbolSuccess) + " " + msg
}

// StatusError returns a red X with optional message.
func StatusError(msg string) string {
	if msg == "" {
		return Error(SymbolError)
	}
	return Error(SymbolError) + " " + msg
}

// StatusWarning returns a yellow warning with optional message.
func StatusWarning(msg string) string {
	if msg == "" {
		return Warning(SymbolWarning)
	}
	return Warning(SymbolWarning) + " " + msg
}

// StatusSkipped returns a dimmed skip symbol with optional message.
func StatusSkipped(msg string) string {
	if msg == "" {
		return Dim(SymbolSkipped)
	}
	return Dim(SymbolSkipped) + " " + msg
}

// ActionLabel renders a resolution action in its status color.
func ActionLabel(a sync.Action) string {
	switch a {
	case sync.ActionAdopt:
		return Success(a.String())
	case sync.ActionClear:
		return Warning(a.String())
	case sync.ActionAbort:
		return Error(a.String())
	default:
		return Dim(a.String())
	}
}

// KindLabel renders a tile classification.
func KindLabel(k sync.Kind) string {
	switch k {
	case sync.KindAgreement:
		return Success(string(k))
	case sync.KindPartial:
		return Warning(string(k))
	default:
		return Error(string(k))
	}
}

// SetColorMode applies an auto, always or never color setting. Auto keeps
// the terminal detection done by fatih/color.
func SetColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return nil
	case "always":
		EnableColors()
	case "never":
		DisableColors()
	default:
		return fmt.Errorf("invalid color mode %q (valid: auto, always, never)", mode)
	}
	return nil
}

// DisableColors disables all color output.
// This is useful for piping output or for users who prefer no colors.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}
