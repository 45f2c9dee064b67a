// Package tui provides interactive terminal UI components using BubbleTea.
package tui

import (
	"golang.org/x/term"
)

// Available reports whether an interactive picker can be shown: both
// stdin and stdout must be terminals.
func Available(stdin, stdout uintptr) bool {
	return term.IsTerminal(int(stdin)) && term.IsTerminal(int(stdout))
}
