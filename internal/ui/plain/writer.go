// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plain

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/turn"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// panelPrefix marks live section lines.
const panelPrefix = "  | "

// =============================================================================
// WRITER SURFACE
// =============================================================================

// Writer is a line-oriented turn.Surface. Assistant text is written inline
// as it streams; every other transcript entry is a block on its own lines.
// Live section panels are shown as prefixed lines between a title and the
// end of the section.
type Writer struct {
	mu  sync.Mutex
	out io.Writer

	showPanels  bool
	streaming   bool
	atLineStart bool

	panel     turn.PanelHandle
	next      turn.PanelHandle
	panelOpen bool

	styleFor map[section.Style]lipgloss.Style
	title    lipgloss.Style
	dim      lipgloss.Style
}

// NewWriter creates a surface writing to out. Colors are used only when out
// is a terminal that supports them. When showPanels is false, section
// content appears only once the section is flushed.
func NewWriter(out io.Writer, showPanels bool) *Writer {
	r := lipgloss.NewRenderer(out)
	return &Writer{
		out:         out,
		showPanels:  showPanels,
		atLineStart: true,
		styleFor: map[section.Style]lipgloss.Style{
			section.StyleUser:      r.NewStyle().Foreground(styles.Cyan).Bold(true),
			section.StyleAssistant: r.NewStyle(),
			section.StyleError:     r.NewStyle().Foreground(styles.Rose),
			section.StyleThinking:  r.NewStyle().Foreground(styles.Purple),
			section.StyleAnalyzing: r.NewStyle().Foreground(styles.Orange),
			section.StyleInfo:      r.NewStyle().Foreground(styles.TextSecondary).Italic(true),
		},
		title: r.NewStyle().Foreground(styles.Purple).Bold(true),
		dim:   r.NewStyle().Foreground(styles.TextMuted),
	}
}

// AppendTranscript implements turn.Surface.
func (w *Writer) AppendTranscript(text string, style section.Style) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if style == section.StyleAssistant {
		if !w.streaming {
			w.newLine()
			w.streaming = true
		}
		w.write(text)
		return
	}
	w.endStream()
	w.newLine()
	w.write(renderLines(w.styleFor[style], text) + "\n")
}

// OpenSectionPanel implements turn.Surface.
func (w *Writer) OpenSectionPanel(title string) turn.PanelHandle {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	w.panel = w.next
	w.panelOpen = true
	w.endStream()
	w.newLine()
	w.write(w.title.Render("["+title+"]") + "\n")
	return w.panel
}

// AppendToPanel implements turn.Surface.
func (w *Writer) AppendToPanel(h turn.PanelHandle, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.panelOpen || h != w.panel || !w.showPanels {
		return
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			w.write("\n")
		}
		if line == "" {
			continue
		}
		if w.atLineStart {
			w.write(w.dim.Render(panelPrefix))
		}
		w.write(w.dim.Render(line))
	}
}

// CloseSectionPanel implements turn.Surface.
func (w *Writer) CloseSectionPanel(h turn.PanelHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.panelOpen || h != w.panel {
		return
	}
	w.panelOpen = false
	w.newLine()
}

// EndTurn terminates a streaming assistant line and drops any panel the
// turn left open.
func (w *Writer) EndTurn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endStream()
	w.panelOpen = false
	w.newLine()
}

// Info writes a line in the info style.
func (w *Writer) Info(text string) {
	w.AppendTranscript(text, section.StyleInfo)
}

// Error writes a line in the error style.
func (w *Writer) Error(text string) {
	w.AppendTranscript(text, section.StyleError)
}

// renderLines styles each line on its own so lipgloss does not pad lines to
// a common width.
func renderLines(st lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = st.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (w *Writer) endStream() {
	w.streaming = false
}

// newLine moves to the start of a line if output stopped mid-line.
func (w *Writer) newLine() {
	if !w.atLineStart {
		w.write("\n")
	}
}

func (w *Writer) write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(w.out, s)
	w.atLineStart = strings.HasSuffix(s, "\n")
}
