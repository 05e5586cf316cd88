// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the chat's key bindings. Printable keys always go to the
// input line, so scrolling is on arrows and paging keys only.
type KeyMap struct {
	Up, Down, PageUp, PageDown, Home, End key.Binding

	Submit   key.Binding
	Complete key.Binding // handled by the input line itself
	Clear    key.Binding
	Quit     key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns the bindings used by New.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       bind("up", "scroll up", "up"),
		Down:     bind("down", "scroll down", "down"),
		PageUp:   bind("PgUp/C-u", "page up", "pgup", "ctrl+u"),
		PageDown: bind("PgDn/C-d", "page down", "pgdown", "ctrl+d"),
		Home:     bind("Home", "go to top", "home"),
		End:      bind("End", "go to bottom", "end"),
		Submit:   bind("Enter", "send", "enter"),
		Complete: bind("Tab", "complete command", "tab"),
		Clear:    bind("C-l", "clear chat", "ctrl+l"),
		Quit:     bind("Esc/C-c", "quit", "ctrl+c", "esc"),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Clear, k.Quit}
}

// FullHelp returns the bindings listed by /help, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Submit, k.Complete, k.Clear, k.Quit},
	}
}
