// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reasonchat/internal/ui/styles"
	"github.com/jeranaias/reasonchat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen: transcript, live section panel, input box
// and status bar.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	parts := []string{m.viewport.View()}
	if m.panel != nil {
		parts = append(parts, m.panel.View(m.theme, m.width))
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderStatusBar shows the model, the streaming state and the last reply
// speed on the left and key hints on the right. Hints are dropped on narrow
// terminals.
func (m *Model) renderStatusBar() string {
	left := m.theme.StatusModel.Render(util.TruncateWidth(m.currentModel(), 32))

	switch {
	case m.busy:
		left += "  " + m.spinner.View() + m.theme.StatusBusy.Render("streaming")
	case m.statusErr != "":
		left += "  " + m.theme.StatusError.Render(styles.StatusIndicators.Error+" "+m.statusErr)
	default:
		left += "  " + styles.StatusIndicators.OK
	}
	if m.cfg.UI.ShowStats && m.lastSpeed > 0 {
		left += fmt.Sprintf("  %.1f tok/s", m.lastSpeed)
	}

	width := m.width - 2
	if m.theme.Layout() == styles.LayoutNarrow {
		return m.theme.StatusBar.MaxWidth(width).Render(left)
	}

	hints := make([]string, 0, 3)
	for _, kb := range m.keys.ShortHelp() {
		h := kb.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	right := strings.Join(hints, " | ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return m.theme.StatusBar.MaxWidth(width).Render(left)
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
