// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for choosing between the full-screen UI
// and the line-oriented chat.
package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// useTUI reports whether the full-screen UI can run: both ends must be a
// terminal and --plain must not be set.
func useTUI(opts *Options, in io.Reader, out io.Writer) bool {
	if opts.Plain {
		return false
	}
	return isTerminal(in) && isTerminal(out)
}
