// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plain is the line-oriented front end: a Writer surface that
// streams replies to an io.Writer and a REPL reading input through liner
// (or a plain reader when stdin is not a terminal).
package plain
