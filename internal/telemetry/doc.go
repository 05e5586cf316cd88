// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records per-turn statistics for the current session:
// outcome, duration, token counts and generation speed as reported by
// Ollama on the final stream line.
//
// # Usage
//
//	tracker := telemetry.NewTracker()
//	tracker.Record(telemetry.TurnRecord{Model: "qwen2", Outcome: telemetry.OutcomeOK})
//	fmt.Println(tracker.Summary())
//
// # Privacy
//
// Statistics are kept in memory only. Prompt and reply text is never stored.
package telemetry
