// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion is one candidate for the current input. Value is the whole
// line with the word completed; Display is the word alone.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// Completer completes command names and their arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns the model names known to the front end.
	ModelsFn func() []string
}

// NewCompleter returns a Completer over registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for input, best first.
func (c *Completer) Complete(input string) []Completion {
	if !IsCommand(input) {
		return nil
	}
	input = strings.TrimLeft(input, " \t")

	parts := splitCommandLine(input)
	trailingSpace := strings.HasSuffix(input, " ")
	if len(parts) <= 1 && !trailingSpace {
		return c.completeCommands(input)
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := parts[len(parts)-1]
	prefix := strings.TrimSuffix(input, partial)
	if trailingSpace {
		argIndex++
		partial = ""
		prefix = input
	}
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	var values []string
	switch arg := cmd.Args[argIndex]; arg.Type {
	case ArgTypeModel:
		if c.ModelsFn != nil {
			values = c.ModelsFn()
		}
	case ArgTypeEnum:
		values = arg.Values
	case ArgTypeDir:
		values = completeDirs(partial)
	}
	return completeFromList(prefix, values, partial)
}

// Lines returns the completed lines for input, best first.
func (c *Completer) Lines(input string) []string {
	completions := c.Complete(input)
	out := make([]string, len(completions))
	for i, comp := range completions {
		out[i] = comp.Value
	}
	return out
}

// Suggestions lists every command line the completer can produce without
// a partial word: each command name, and each command followed by a model
// or enum value.
func (c *Completer) Suggestions() []string {
	var out []string
	for _, cmd := range c.registry.All() {
		out = append(out, cmd.Name)
		if len(cmd.Args) == 0 {
			continue
		}
		for _, comp := range c.Complete(cmd.Name + " ") {
			if cmd.Args[0].Type != ArgTypeDir {
				out = append(out, comp.Value)
			}
		}
	}
	return out
}

func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)
	for _, cmd := range c.registry.All() {
		if strings.HasPrefix(cmd.Name, partial) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       score(cmd.Name, partial),
			})
		}
	}
	rank(completions)
	return completions
}

func completeFromList(prefix string, values []string, partial string) []Completion {
	var completions []Completion
	lower := strings.ToLower(partial)
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), lower) {
			completions = append(completions, Completion{
				Value:   prefix + v,
				Display: v,
				Score:   score(v, partial),
			})
		}
	}
	rank(completions)
	return completions
}

// completeDirs lists directories whose path starts with partial.
func completeDirs(partial string) []string {
	dir, base := filepath.Split(partial)
	readDir := dir
	if readDir == "" {
		readDir = "."
	}
	entries, err := os.ReadDir(readDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), base) {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		out = append(out, dir+e.Name()+string(filepath.Separator))
	}
	return out
}

// score ranks an exact match above a prefix match, and shorter candidates
// above longer ones.
func score(value, partial string) int {
	value, partial = strings.ToLower(value), strings.ToLower(partial)
	switch {
	case value == partial:
		return 200
	case strings.HasPrefix(value, partial):
		return 170 - len(value) - len(value)/2
	default:
		return 100 - len(value)/2
	}
}

func rank(completions []Completion) {
	sort.SliceStable(completions, func(i, j int) bool {
		a, b := completions[i], completions[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Value < b.Value
	})
}
