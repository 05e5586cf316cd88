// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error presentation for reasonchat commands.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Process exit codes. 4 and 6 are unused.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2 // bad flags or arguments
	ExitConfigError   = 3 // unreadable or invalid config
	ExitNetworkError  = 5 // Ollama unreachable
	ExitNotFoundError = 7 // model not installed
	ExitTimeoutError  = 8
)

// CommandError pins the exit code for Err.
type CommandError struct {
	Code int
	Err  error
}

func (e *CommandError) Error() string { return e.Err.Error() }
func (e *CommandError) Unwrap() error { return e.Err }

// ExitCodeFor picks the exit code for an error returned by a command.
func ExitCodeFor(err error) int {
	var cmdErr *CommandError
	var verrs config.ValidateErrors
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cmdErr):
		return cmdErr.Code
	case errors.As(err, &verrs):
		return ExitConfigError
	case ollama.IsNotRunning(err):
		return ExitNetworkError
	case ollama.IsModelNotFound(err):
		return ExitNotFoundError
	case ollama.IsTimeout(err):
		return ExitTimeoutError
	default:
		return ExitGeneralError
	}
}

var errorLabel = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)

// PrintError writes err to w as a single labeled line. Config validation
// failures list one problem per line.
func PrintError(w io.Writer, err error) {
	var verrs config.ValidateErrors
	if errors.As(err, &verrs) {
		fmt.Fprintln(w, errorLabel.Render("[Error]"), "invalid configuration:")
		for _, v := range verrs {
			fmt.Fprintf(w, "  %s\n", v.Error())
		}
		return
	}
	fmt.Fprintln(w, errorLabel.Render("[Error]"), err)
}
