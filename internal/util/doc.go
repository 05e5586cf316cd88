// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the chat front ends:
// cell-width aware truncation for the status bar and log previews, and
// AtomicWriteFile for saving the config file and chat exports.
package util
