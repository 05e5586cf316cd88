// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn runs one chat turn end to end.
//
// A turn appends the user's message to the conversation (adding the system
// prompt first when the log is empty), formats the whole log into a prompt,
// streams the reply from Ollama and feeds every fragment through a
// section.Dispatcher. Dispatcher events are applied to a Surface in order.
// When the stream completes the full reply, markers included, is appended
// to the conversation; an empty reply shows an informational line instead,
// and a failure shows a single error line.
//
// The Surface interface is implemented by the Bubble Tea chat model
// (internal/ui/chat) and the line-oriented writer (internal/ui/plain).
package turn
