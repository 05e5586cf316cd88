// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnknownCommand is returned by Validate for a name no command owns.
var ErrUnknownCommand = errors.New("unknown command")

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// Name is the command name as typed, lowercased
	Name string

	// Args are the parsed arguments, quotes removed
	Args []string
}

// Parse parses user input against the registry.
func (r *Registry) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	if !IsCommand(input) {
		return ParseResult{}
	}

	result := ParseResult{IsCommand: true}
	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}
	result.Name = strings.ToLower(parts[0])
	result.Args = parts[1:]
	result.Command = r.Get(result.Name)
	return result
}

// Validate checks the argument count against the command's definition.
func (p ParseResult) Validate() error {
	if p.Command == nil {
		return fmt.Errorf("%w: %s (type /help for commands)", ErrUnknownCommand, p.Name)
	}
	required := 0
	for _, a := range p.Command.Args {
		if a.Required {
			required++
		}
	}
	if len(p.Args) < required || len(p.Args) > len(p.Command.Args) {
		return fmt.Errorf("usage: %s", p.Command.Usage())
	}
	for i, a := range p.Command.Args {
		if i >= len(p.Args) || a.Type != ArgTypeEnum {
			continue
		}
		if !containsFold(a.Values, p.Args[i]) {
			return fmt.Errorf("invalid %s %q (use %s)", a.Name, p.Args[i], strings.Join(a.Values, " or "))
		}
	}
	return nil
}

// Arg returns argument i, or "" when absent.
func (p ParseResult) Arg(i int) string {
	if i < len(p.Args) {
		return p.Args[i]
	}
	return ""
}

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens. Single and double
// quotes group words; a backslash inside quotes escapes a quote or itself.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble, quoted bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true
		case ch == '\\' && (inSingle || inDouble) && i+1 < len(runes) && strings.ContainsRune(`"'\`, runes[i+1]):
			current.WriteRune(runes[i+1])
			i++
		case unicode.IsSpace(ch) && !inSingle && !inDouble:
			if current.Len() > 0 || quoted {
				tokens = append(tokens, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 || quoted {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
