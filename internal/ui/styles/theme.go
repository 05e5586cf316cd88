// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/reasonchat/internal/section"
)

// Theme is the set of lipgloss styles the chat view draws with, resolved
// once for a light or dark background.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Transcript, one per section.Style.
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Thinking  lipgloss.Style
	Analyzing lipgloss.Style
	Info      lipgloss.Style

	// Live section panel.
	PanelBox   lipgloss.Style
	PanelTitle lipgloss.Style

	// Input line and status bar.
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	StatusBar        lipgloss.Style
	StatusModel      lipgloss.Style
	StatusBusy       lipgloss.Style
	StatusError      lipgloss.Style
	Spinner          lipgloss.Style
}

// NewTheme builds a theme for mode "dark", "light" or "auto". Auto queries
// the terminal background.
func NewTheme(mode string) *Theme {
	dark := termenv.HasDarkBackground
	switch strings.ToLower(mode) {
	case "light":
		dark = func() bool { return false }
	case "dark":
		dark = func() bool { return true }
	}
	t := &Theme{IsDark: dark(), ColorProfile: termenv.ColorProfile()}
	lipgloss.SetHasDarkBackground(t.IsDark)
	t.build()
	return t
}

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// sectionBar marks a flushed reasoning block with a colored left rule.
func sectionBar(c lipgloss.TerminalColor) lipgloss.Style {
	return fg(c).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(c).
		PaddingLeft(1)
}

func (t *Theme) build() {
	t.User = fg(Blue).Bold(true)
	t.Assistant = fg(Green)
	t.Error = fg(Rose).Bold(true)
	t.Info = fg(Cyan).Italic(true)
	t.Thinking = sectionBar(Purple)
	t.Analyzing = sectionBar(Orange)

	t.PanelBox = fg(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PanelTitle = fg(TextPrimary).Bold(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = fg(Cyan).Bold(true)
	t.InputPlaceholder = fg(TextMuted).Italic(true)

	t.StatusBar = fg(TextSecondary).Background(SurfaceDim).Padding(0, 1)
	t.StatusModel = fg(Green).Bold(true)
	t.StatusBusy = fg(Purple)
	t.StatusError = fg(Rose)
	t.Spinner = fg(Purple)
}

// For returns the transcript style for a section style tag.
func (t *Theme) For(s section.Style) lipgloss.Style {
	switch s {
	case section.StyleUser:
		return t.User
	case section.StyleAssistant:
		return t.Assistant
	case section.StyleError:
		return t.Error
	case section.StyleThinking:
		return t.Thinking
	case section.StyleAnalyzing:
		return t.Analyzing
	default:
		return t.Info
	}
}

// PanelStyle returns the border color for a live panel by title.
func (t *Theme) PanelStyle(title string) lipgloss.Style {
	switch title {
	case section.Thinking.Title():
		return t.PanelBox.BorderForeground(Purple)
	case section.Analyzing.Title():
		return t.PanelBox.BorderForeground(Orange)
	default:
		return t.PanelBox
	}
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width, t.Height = width, height
}

// LayoutMode selects how much the status bar shows.
type LayoutMode int

const (
	// LayoutNarrow is under 60 columns; key hints are dropped.
	LayoutNarrow LayoutMode = iota
	LayoutWide
)

// Layout returns the layout mode for the current width.
func (t *Theme) Layout() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	return LayoutWide
}
