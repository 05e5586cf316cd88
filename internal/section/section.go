// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package section

import "fmt"

// =============================================================================
// SECTION KINDS
// =============================================================================

// Kind names a delimited region the model emits inline in its reply.
type Kind int

const (
	Thinking Kind = iota + 1
	Analyzing
)

// Kinds lists every section kind in marker precedence order.
var Kinds = []Kind{Thinking, Analyzing}

// String returns the lowercase tag name ("thinking", "analyzing").
func (k Kind) String() string {
	switch k {
	case Thinking:
		return "thinking"
	case Analyzing:
		return "analyzing"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// OpenMarker returns the literal opening tag, e.g. "<thinking>".
func (k Kind) OpenMarker() string {
	return "<" + k.String() + ">"
}

// CloseMarker returns the literal closing tag, e.g. "</thinking>".
func (k Kind) CloseMarker() string {
	return "</" + k.String() + ">"
}

// Label is the heading used when the section is flushed to the transcript.
func (k Kind) Label() string {
	switch k {
	case Thinking:
		return "Thinking"
	case Analyzing:
		return "Analyzing"
	default:
		return k.String()
	}
}

// Title is the heading of the live panel while the section streams.
func (k Kind) Title() string {
	switch k {
	case Thinking:
		return "Thinking Process"
	case Analyzing:
		return "Analysis"
	default:
		return k.Label()
	}
}

// Style returns the transcript style used for the flushed block.
func (k Kind) Style() Style {
	switch k {
	case Thinking:
		return StyleThinking
	case Analyzing:
		return StyleAnalyzing
	default:
		return StyleAssistant
	}
}

// =============================================================================
// STYLES
// =============================================================================

// Style tags transcript text for visual differentiation only.
type Style string

const (
	StyleUser      Style = "user"
	StyleAssistant Style = "assistant"
	StyleError     Style = "error"
	StyleThinking  Style = "thinking"
	StyleAnalyzing Style = "analyzing"
	StyleInfo      Style = "info"
)

// =============================================================================
// DISPATCH STATE
// =============================================================================

// State is the dispatcher mode: Plain, or inside exactly one section.
// The zero value is Plain and States compare with ==.
type State struct {
	kind Kind
}

// Plain is the initial state: fragments go straight to the transcript.
var Plain = State{}

// InSection returns the state of being inside a section of kind k.
func InSection(k Kind) State {
	return State{kind: k}
}

// Section reports the active section kind; ok is false in Plain.
func (s State) Section() (k Kind, ok bool) {
	return s.kind, s.kind != 0
}

// IsPlain reports whether no section is open.
func (s State) IsPlain() bool {
	return s.kind == 0
}

func (s State) String() string {
	if s.IsPlain() {
		return "plain"
	}
	return "in_section(" + s.kind.String() + ")"
}
