// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the current chat to a Markdown or JSON file.
//
// Assistant replies are replayed through a section dispatcher so thinking
// and analyzing blocks are split out the same way the live chat shows them.
//
// Usage:
//
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(session, exp, ".", nil)
package export
