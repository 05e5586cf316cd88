// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Each color adapts to the terminal background.
var (
	Blue   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"} // user lines
	Green  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"} // assistant text
	Rose   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"} // errors
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"} // thinking
	Orange = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"} // analyzing
	Cyan   = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"} // banners, info

	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// =============================================================================
// ACCESSIBILITY
// =============================================================================

// StatusIndicators are ASCII markers shown alongside color so that states
// stay distinguishable without it.
var StatusIndicators = struct {
	OK    string
	Error string
	Busy  string
}{
	OK:    "[OK]",
	Error: "[X]",
	Busy:  "[*]",
}
