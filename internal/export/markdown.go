// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/reasonchat/internal/conversation"
	"github.com/jeranaias/reasonchat/internal/telemetry"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

type frontmatter struct {
	Title     string    `yaml:"title"`
	Model     string    `yaml:"model"`
	Date      time.Time `yaml:"date,omitempty"`
	Turns     int       `yaml:"turns"`
	Tokens    int       `yaml:"tokens,omitempty"`
	Exported  time.Time `yaml:"exported"`
	Generator string    `yaml:"generator"`
}

// MarkdownExporter exports conversations to Markdown. Thinking and analyzing
// sections become collapsed <details> blocks.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = &Options{}
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}

	var sb strings.Builder
	summary := summarize(s.Turns)

	front, err := yaml.Marshal(frontmatter{
		Title:     title(s),
		Model:     s.Model,
		Date:      s.Started,
		Turns:     summary.Turns,
		Tokens:    summary.CompletionTokens,
		Exported:  e.options.now(),
		Generator: "reasonchat",
	})
	if err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	sb.WriteString("---\n")
	sb.Write(front)
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title(s)))

	first := true
	for _, msg := range s.Messages {
		if msg.Role == conversation.RoleSystem && !e.options.IncludeSystem {
			continue
		}
		if !first {
			sb.WriteString("---\n\n")
		}
		first = false

		fmt.Fprintf(&sb, "### %s\n\n", msg.Role.Label())
		if msg.Role == conversation.RoleAssistant {
			sb.WriteString(formatReply(msg.Content))
		} else {
			sb.WriteString(strings.TrimSpace(msg.Content))
		}
		sb.WriteString("\n\n")
	}

	if line := statsLine(summary); line != "" {
		sb.WriteString("---\n\n")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatReply renders an assistant reply with each section folded away.
func formatReply(content string) string {
	var blocks []string
	for _, p := range SplitReply(content) {
		if !p.Section {
			if text := strings.TrimSpace(p.Text); text != "" {
				blocks = append(blocks, text)
			}
			continue
		}
		blocks = append(blocks, fmt.Sprintf("<details>\n<summary>%s</summary>\n\n%s\n\n</details>",
			p.Kind.Title(), p.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// summarize totals the turn records the same way the live tracker does.
func summarize(turns []telemetry.TurnRecord) telemetry.Summary {
	t := telemetry.NewTracker()
	for _, r := range turns {
		t.Record(r)
	}
	return t.Summary()
}

func statsLine(s telemetry.Summary) string {
	if s.Turns == 0 {
		return ""
	}
	return fmt.Sprintf("<sub>Turns: %d | Tokens: %d prompt, %d completion | Average speed: %.1f tok/s</sub>",
		s.Turns, s.PromptTokens, s.CompletionTokens, s.AvgTokensPerSecond)
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes the characters that break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
