// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/turn"
)

// =============================================================================
// SURFACE MESSAGES
// =============================================================================

// TranscriptMsg appends text to the transcript.
type TranscriptMsg struct {
	Text  string
	Style section.Style
}

// PanelOpenMsg shows a new live section panel.
type PanelOpenMsg struct {
	Handle turn.PanelHandle
	Title  string
}

// PanelAppendMsg streams text into a live panel.
type PanelAppendMsg struct {
	Handle turn.PanelHandle
	Text   string
}

// PanelCloseMsg discards a live panel.
type PanelCloseMsg struct {
	Handle turn.PanelHandle
}

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnDoneMsg is delivered when the turn goroutine returns. Every surface
// message of the turn has been delivered before it.
type TurnDoneMsg struct {
	Result turn.Result
	// Err is a refusal (busy, empty input); the turn never started.
	Err error
}

// =============================================================================
// OLLAMA MESSAGES
// =============================================================================

// OllamaStatusMsg reports the startup health probe.
type OllamaStatusMsg struct {
	Running bool
	Error   error
}

// OllamaModelsMsg delivers the list of local models. A Quiet listing only
// feeds completion and prints nothing.
type OllamaModelsMsg struct {
	Models []ollama.ModelInfo
	Error  error
	Quiet  bool
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config that changed on disk and validated.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that failed to reload.
type ConfigErrorMsg struct {
	Error error
}
