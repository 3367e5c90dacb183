// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides small helpers for terminal detection and sizing.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the width of stdout cannot be determined.
const DefaultWidth = 80

// Width returns the current width of stdout in columns.
func Width() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return DefaultWidth
}

// IsInteractive reports whether f is attached to a terminal. Spinners and
// colours are only drawn on interactive outputs.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Truncate shortens s to fit in width columns, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
