// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reasonchat/internal/section"
)

func TestNewTheme_Modes(t *testing.T) {
	if th := NewTheme("dark"); !th.IsDark {
		t.Error("dark mode should report IsDark")
	}
	if th := NewTheme("light"); th.IsDark {
		t.Error("light mode should not report IsDark")
	}
}

func TestFor_DistinctPerStyle(t *testing.T) {
	th := NewTheme("dark")
	styles := []section.Style{
		section.StyleUser, section.StyleAssistant, section.StyleError,
		section.StyleThinking, section.StyleAnalyzing, section.StyleInfo,
	}

	seen := make(map[lipgloss.TerminalColor]section.Style)
	for _, s := range styles {
		fg := th.For(s).GetForeground()
		if prev, dup := seen[fg]; dup {
			t.Errorf("%s and %s share a color", prev, s)
		}
		seen[fg] = s
	}
}

func TestFor_UnknownFallsBackToInfo(t *testing.T) {
	th := NewTheme("dark")
	if th.For(section.Style("mystery")).GetForeground() != th.Info.GetForeground() {
		t.Error("unknown style should render as info")
	}
}

func TestLayoutMode(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(40, 20)
	if th.Layout() != LayoutNarrow {
		t.Error("40 columns should be narrow")
	}
	th.SetSize(120, 40)
	if th.Layout() != LayoutWide {
		t.Error("120 columns should be wide")
	}
}
