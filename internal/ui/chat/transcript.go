// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Entry is one block of the transcript.
type Entry struct {
	Style section.Style
	Text  string
	// Streaming is true while assistant fragments are still being joined
	// onto this entry.
	Streaming bool
}

// Transcript is the scrolling log shown in the viewport.
//
// Assistant-style text is streamed: consecutive fragments join one entry
// until any other style is appended or EndStream is called. Every other
// style is a complete block.
type Transcript struct {
	entries []Entry

	// rendered caches glamour output for finished assistant entries. It is
	// valid only for renderedWidth and renderedBy.
	rendered      map[int]string
	renderedWidth int
	renderedBy    *glamour.TermRenderer
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{rendered: make(map[int]string)}
}

// Append adds text with the given style.
func (t *Transcript) Append(text string, style section.Style) {
	if style == section.StyleAssistant {
		if n := len(t.entries); n > 0 && t.entries[n-1].Streaming {
			t.entries[n-1].Text += text
			return
		}
		t.entries = append(t.entries, Entry{Style: style, Text: text, Streaming: true})
		return
	}
	t.EndStream()
	t.entries = append(t.entries, Entry{Style: style, Text: text})
}

// EndStream marks the current assistant entry finished.
func (t *Transcript) EndStream() {
	if n := len(t.entries); n > 0 {
		t.entries[n-1].Streaming = false
	}
}

// Reset removes every entry.
func (t *Transcript) Reset() {
	t.entries = nil
	t.ResetRenderCache()
}

// ResetRenderCache drops cached markdown output so the next Render
// re-renders every finished reply.
func (t *Transcript) ResetRenderCache() {
	t.rendered = make(map[int]string)
	t.renderedBy = nil
}

// Entries returns a copy of the entries.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Render lays the transcript out for the given width. When md is non-nil,
// finished assistant entries are rendered as markdown.
func (t *Transcript) Render(theme *styles.Theme, width int, md *glamour.TermRenderer) string {
	if width < 10 {
		width = 10
	}
	if width != t.renderedWidth || md != t.renderedBy {
		t.ResetRenderCache()
		t.renderedWidth = width
		t.renderedBy = md
	}

	blocks := make([]string, 0, len(t.entries))
	for i, e := range t.entries {
		if md != nil && e.Style == section.StyleAssistant && !e.Streaming {
			if out, ok := t.rendered[i]; ok {
				blocks = append(blocks, out)
				continue
			}
			if out, err := md.Render(e.Text); err == nil {
				out = strings.Trim(out, "\n")
				t.rendered[i] = out
				blocks = append(blocks, out)
				continue
			}
		}
		blocks = append(blocks, theme.For(e.Style).Width(width-2).Render(e.Text))
	}
	return strings.Join(blocks, "\n\n")
}
