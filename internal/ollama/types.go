// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"fmt"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GenerateRequest is the POST /api/generate body. Prompt carries the whole
// formatted conversation; Stream is always true.
type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

// Options are model parameters. Zero values are omitted.
type Options struct {
	Temperature float64  `json:"temperature,omitempty"`
	NumCtx      int      `json:"num_ctx,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// GenerateResponse is one NDJSON line of a /api/generate stream.
type GenerateResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           string    `json:"response"`
	Done               bool      `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`
	LoadDuration       int64     `json:"load_duration,omitempty"`
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"`
	EvalCount          int       `json:"eval_count,omitempty"`
	EvalDuration       int64     `json:"eval_duration,omitempty"`

	// Ollama reports mid-stream failures as {"error": "..."}.
	Error string `json:"error,omitempty"`
}

// ModelInfo is one entry of /api/tags.
type ModelInfo struct {
	Name       string       `json:"name"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details,omitempty"`
}

// ModelDetails is the details object of a ModelInfo.
type ModelDetails struct {
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

// ListModelsResponse is the /api/tags body.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// OllamaError is the body Ollama sends with a non-2xx status.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk is a single decoded fragment of a generate stream.
type StreamChunk struct {
	// Content is the raw text fragment. It may be empty, and it may end in the
	// middle of a word, a tag or a multi-byte character.
	Content string

	// Set on the final chunk only.
	Done             bool
	DoneReason       string
	TotalDuration    time.Duration
	EvalDuration     time.Duration
	PromptTokens     int
	CompletionTokens int

	Model string

	// Error is set on the final chunk delivered by GenerateChan when the
	// request failed.
	Error error
}

// TokensPerSecond is the generation speed reported by a final chunk.
func (c *StreamChunk) TokensPerSecond() float64 {
	if c.EvalDuration <= 0 {
		return 0
	}
	return float64(c.CompletionTokens) / c.EvalDuration.Seconds()
}

// FormatSize renders Size in binary units, e.g. "4.1 GB".
func (m *ModelInfo) FormatSize() string {
	if m.Size < 1024 {
		return fmt.Sprintf("%d B", m.Size)
	}
	size := float64(m.Size) / 1024
	unit := 0
	for size >= 1024 && unit < 2 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, [...]string{"KB", "MB", "GB"}[unit])
}
