// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reasonchat/internal/turn"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// panelLines is how many content lines the live panel shows.
const panelLines = 6

// livePanel is the box that shows a thinking/analyzing section while it
// streams. Only the tail of the content is visible.
type livePanel struct {
	handle  turn.PanelHandle
	title   string
	content strings.Builder
}

func newLivePanel(h turn.PanelHandle, title string) *livePanel {
	return &livePanel{handle: h, title: title}
}

// Content returns everything streamed into the panel.
func (p *livePanel) Content() string {
	return p.content.String()
}

// height is the number of terminal rows View occupies.
func (p *livePanel) height() int {
	// title + content + top and bottom border
	return 1 + panelLines + 2
}

// View renders the panel at the given outer width.
func (p *livePanel) View(theme *styles.Theme, width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	wrapped := lipgloss.NewStyle().Width(inner).Render(p.content.String())
	lines := strings.Split(wrapped, "\n")
	if len(lines) > panelLines {
		lines = lines[len(lines)-panelLines:]
	}
	for len(lines) < panelLines {
		lines = append(lines, "")
	}

	body := theme.PanelTitle.Render(p.title) + "\n" + strings.Join(lines, "\n")
	return theme.PanelStyle(p.title).Width(width - 2).Render(body)
}
