// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package section splits a streamed model reply into the plain answer and
// the <thinking> / <analyzing> sections the model emits inline.
//
// The Dispatcher is a pure state machine: fragments in, Events out. It knows
// nothing about terminals or HTTP, so the turn runner and every surface
// (Bubble Tea, plain writer, tests) share one implementation.
//
// # States
//
//	Plain ──<thinking>──▶ InSection(Thinking) ──</thinking>──▶ Plain
//	  │                        │
//	  └──<analyzing>──▶ InSection(Analyzing) ◀──<analyzing>──┘ (flushes thinking first)
//
// # Known limitations
//
// Markers split across fragments ("<think" + "ing>") are not recognized, and
// literal marker text inside a fragment is kept in the displayed content.
// Fixing either changes the rendered output.
package section
