// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import "github.com/jeranaias/reasonchat/internal/section"

// PanelHandle identifies a live section panel opened on a Surface.
type PanelHandle int

// Surface is where a turn's output goes. Implementations must apply calls in
// the order they are made; they may defer the actual rendering (the Bubble
// Tea surface posts messages to the UI loop and returns immediately).
type Surface interface {
	// AppendTranscript adds text to the main log. Assistant-style text is
	// streamed and joins the preceding assistant text; every other style is
	// a complete block.
	AppendTranscript(text string, style section.Style)

	// OpenSectionPanel shows a new live panel with the given title.
	OpenSectionPanel(title string) PanelHandle

	// AppendToPanel streams text into an open panel.
	AppendToPanel(h PanelHandle, text string)

	// CloseSectionPanel discards a panel. Its content is flushed to the
	// transcript separately.
	CloseSectionPanel(h PanelHandle)
}

// apply routes dispatcher events to the surface. panel carries the handle of
// the open panel across calls.
func apply(s Surface, events []section.Event, panel *PanelHandle) (opened int) {
	for _, e := range events {
		switch e.Type {
		case section.EventTranscript:
			s.AppendTranscript(e.Text, e.Style)
		case section.EventOpenPanel:
			*panel = s.OpenSectionPanel(e.Title)
			opened++
		case section.EventPanelAppend:
			s.AppendToPanel(*panel, e.Text)
		case section.EventClosePanel:
			s.CloseSectionPanel(*panel)
		case section.EventFlush:
			s.AppendTranscript(e.Block(), e.Style)
		}
	}
	return opened
}
