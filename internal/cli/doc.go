// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli wires the reasonchat commands together with cobra.
//
// The root command starts a chat session: it loads the config, opens the
// debug log, builds the turn runner and runs either the Bubble Tea UI or
// the plain REPL next to the config watcher.
//
// # Commands
//
//   - (root): interactive chat
//   - models: list local Ollama models
//   - config show | init | path: configuration file
//   - version: build information
package cli
