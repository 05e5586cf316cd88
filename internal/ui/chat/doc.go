// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea chat screen.
//
// Turns run on a goroutine started by a tea.Cmd. The turn reports through a
// ProgramSurface, which posts each surface call to the program as a
// message, so the model is only ever touched from the event loop. The
// TurnDoneMsg returned by the command arrives after every surface message
// of that turn.
//
// Layout, top to bottom: the transcript viewport, the live section panel
// (only while a thinking or analyzing section streams), the input box and a
// one-line status bar.
package chat
