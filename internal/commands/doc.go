// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands holds the slash commands shared by the terminal UI and
// the plain REPL: their names, arguments, help text, parsing and tab
// completion. Each front end maps command names to its own handlers.
//
// Usage:
//
//	reg := commands.NewRegistry()
//	res := reg.Parse("/export json ~/notes")
//	if err := res.Validate(); err != nil {
//		// show err
//	}
//	switch res.Command.Name {
//	case commands.Export:
//		// ...
//	}
package commands
