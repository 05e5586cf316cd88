// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles for the chat UI.

Every transcript style tag has its own color: user lines blue, streamed
assistant text green, errors rose, thinking blocks purple, analyzing blocks
orange and informational lines cyan. All colors are lipgloss AdaptiveColor
values so they follow the terminal background.

# Usage

	theme := styles.NewTheme("auto")
	line := theme.For(section.StyleThinking).Render(block)
*/
package styles
