// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/reasonchat/internal/conversation"
	"github.com/jeranaias/reasonchat/internal/telemetry"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON. Assistant messages carry their
// sections split out next to the raw content.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	Generator string                 `json:"generator"`
	Exported  time.Time              `json:"exported"`
	Model     string                 `json:"model"`
	Started   *time.Time             `json:"started,omitempty"`
	Messages  []jsonMessage          `json:"messages"`
	Turns     []telemetry.TurnRecord `json:"turns"`
}

type jsonMessage struct {
	conversation.Message
	Sections []jsonSection `json:"sections,omitempty"`
}

type jsonSection struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Export converts a session to indented JSON.
func (e *JSONExporter) Export(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}

	doc := jsonDocument{
		Generator: "reasonchat",
		Exported:  e.options.now(),
		Model:     s.Model,
		Messages:  []jsonMessage{},
		Turns:     s.Turns,
	}
	if !s.Started.IsZero() {
		started := s.Started
		doc.Started = &started
	}
	if doc.Turns == nil {
		doc.Turns = []telemetry.TurnRecord{}
	}

	for _, msg := range s.Messages {
		if msg.Role == conversation.RoleSystem && !e.options.IncludeSystem {
			continue
		}
		jm := jsonMessage{Message: msg}
		if msg.Role == conversation.RoleAssistant {
			for _, p := range SplitReply(msg.Content) {
				if p.Section {
					jm.Sections = append(jm.Sections, jsonSection{Kind: p.Kind.String(), Text: p.Text})
				}
			}
		}
		doc.Messages = append(doc.Messages, jm)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
