// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the role-tagged message log of a chat session
// and renders it into the single prompt string sent to /api/generate.
//
// # Key Types
//
//   - Conversation: append-only log with Format, Reset and the lazy
//     system-prompt rule (EnsureSystem)
//   - Message: immutable role/content pair
//   - Role: system, user or assistant
//
// # Usage
//
//	conv := conversation.New()
//	conv.EnsureSystem("You are a helpful assistant.")
//	_ = conv.Append(conversation.RoleUser, "Hello!")
//	prompt := conv.Format()
//	// System: You are a helpful assistant.
//	// Human: Hello!
package conversation
