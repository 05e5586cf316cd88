// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command describes a slash command. Front ends attach their own handlers
// by Name.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/exit")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Args defines the accepted arguments, in order
	Args []ArgDef
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name     string
	Required bool
	Type     ArgType
	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model name from Ollama
	ArgTypeEnum                  // One of Values
	ArgTypeDir                   // Directory path
)

// Usage renders the argument syntax, e.g. "/model <name>".
func (c *Command) Usage() string {
	parts := []string{c.Name}
	for _, a := range c.Args {
		name := a.Name
		if a.Type == ArgTypeEnum {
			name = strings.Join(a.Values, "|")
		}
		if a.Required {
			parts = append(parts, "<"+name+">")
		} else {
			parts = append(parts, "["+name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds the slash commands in registration order.
type Registry struct {
	ordered []*Command
	byName  map[string]*Command
}

// NewRegistry creates a registry holding the built-in chat commands.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Command)}
	r.registerBuiltins()
	return r
}

// Register adds a command. A later command with the same name or alias
// replaces the earlier lookup entry.
func (r *Registry) Register(cmd *Command) {
	r.ordered = append(r.ordered, cmd)
	r.byName[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.byName[alias] = cmd
	}
}

// Get retrieves a command by name or alias, case-insensitively.
func (r *Registry) Get(name string) *Command {
	return r.byName[strings.ToLower(name)]
}

// All returns the commands in registration order.
func (r *Registry) All() []*Command {
	out := make([]*Command, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Help renders the command list for /help.
func (r *Registry) Help() string {
	var b strings.Builder
	b.WriteString("Commands:")
	for _, c := range r.ordered {
		fmt.Fprintf(&b, "\n  %-24s %s", c.Usage(), c.Description)
	}
	return b.String()
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// Command names shared by every front end.
const (
	Help   = "/help"
	Clear  = "/clear"
	Models = "/models"
	Model  = "/model"
	Stats  = "/stats"
	Export = "/export"
	Quit   = "/quit"
)

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        Help,
		Aliases:     []string{"/?"},
		Description: "Show commands and keys",
	})
	r.Register(&Command{
		Name:        Clear,
		Aliases:     []string{"/new"},
		Description: "Clear the chat and start over",
	})
	r.Register(&Command{
		Name:        Models,
		Description: "List local Ollama models",
	})
	r.Register(&Command{
		Name:        Model,
		Description: "Show the model, or use another from the next message",
		Args:        []ArgDef{{Name: "name", Type: ArgTypeModel}},
	})
	r.Register(&Command{
		Name:        Stats,
		Description: "Show session statistics",
	})
	r.Register(&Command{
		Name:        Export,
		Description: "Save the chat to a file",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"md", "json"}},
			{Name: "dir", Type: ArgTypeDir},
		},
	})
	r.Register(&Command{
		Name:        Quit,
		Aliases:     []string{"/exit", "/q"},
		Description: "Exit",
	})
}
