// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/reasonchat/internal/conversation"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/telemetry"
	"github.com/jeranaias/reasonchat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Session is what gets exported: the conversation log plus turn statistics.
type Session struct {
	Model    string
	Started  time.Time
	Messages []conversation.Message
	Turns    []telemetry.TurnRecord
}

// NewSession builds a Session. Started is the time of the first message.
func NewSession(model string, msgs []conversation.Message, turns []telemetry.TurnRecord) *Session {
	s := &Session{Model: model, Messages: msgs, Turns: turns}
	if len(msgs) > 0 {
		s.Started = msgs[0].Timestamp
	}
	return s
}

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a session to the target format.
	Export(s *Session) ([]byte, error)

	// FileExtension returns the file extension, e.g. ".md".
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// IncludeSystem includes the system prompt message.
	IncludeSystem bool

	// Now stamps the export. Defaults to time.Now.
	Now func() time.Time
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// ForFormat returns the exporter for "md", "markdown" or "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (use md or json)", format)
	}
}

// ToFile exports s into dir and returns the written path. The file name is
// built from the first user message and the export time.
func ToFile(s *Session, e Exporter, dir string, opts *Options) (string, error) {
	if s == nil || len(userMessages(s.Messages)) == 0 {
		return "", fmt.Errorf("nothing to export")
	}

	content, err := e.Export(s)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("reasonchat_%s_%s%s",
		sanitizeFilename(title(s)),
		opts.now().Format("20060102_150405"),
		e.FileExtension(),
	)
	path := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// FromArgs handles the "/export [md|json] [dir]" command arguments and
// returns the written path. dir defaults to the working directory.
func FromArgs(s *Session, args []string, opts *Options) (string, error) {
	format, dir := "md", "."
	if len(args) > 0 {
		format = args[0]
	}
	if len(args) > 1 {
		dir = args[1]
	}
	if len(args) > 2 {
		return "", fmt.Errorf("usage: /export [md|json] [dir]")
	}

	e, err := ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return ToFile(s, e, dir, opts)
}

// =============================================================================
// SECTION SPLITTING
// =============================================================================

// Part is a piece of an assistant reply: plain text, or a finished section.
type Part struct {
	// Kind is set for sections; Section reports which.
	Kind    section.Kind
	Section bool
	// Text is the plain text, or the section content without its markers.
	Text string
}

var markerStripper = strings.NewReplacer(markerPairs()...)

func markers() []string {
	var out []string
	for _, k := range section.Kinds {
		out = append(out, k.OpenMarker(), k.CloseMarker())
	}
	return out
}

func markerPairs() []string {
	var out []string
	for _, m := range markers() {
		out = append(out, m, "")
	}
	return out
}

// SplitReply replays a stored reply through a section dispatcher and
// returns its parts in order. A section still open at the end is flushed.
func SplitReply(content string) []Part {
	d := section.NewDispatcher(section.WithUnterminatedPolicy(section.FlushOnFinish))

	var parts []Part
	var plain strings.Builder
	flushPlain := func() {
		if plain.Len() > 0 {
			parts = append(parts, Part{Text: plain.String()})
			plain.Reset()
		}
	}
	handle := func(events []section.Event) {
		for _, ev := range events {
			switch ev.Type {
			case section.EventTranscript:
				plain.WriteString(ev.Text)
			case section.EventFlush:
				flushPlain()
				parts = append(parts, Part{
					Kind:    ev.Kind,
					Section: true,
					Text:    strings.TrimSpace(markerStripper.Replace(ev.Text)),
				})
			}
		}
	}

	for _, fragment := range splitAtMarkers(content) {
		handle(d.Dispatch(fragment))
	}
	handle(d.Finish())
	flushPlain()
	return parts
}

// splitAtMarkers cuts s so that every section marker is a fragment of its
// own, which is how a streamed reply usually arrives.
func splitAtMarkers(s string) []string {
	all := markers()

	var out []string
	for s != "" {
		idx, marker := -1, ""
		for _, m := range all {
			if i := strings.Index(s, m); i >= 0 && (idx < 0 || i < idx) {
				idx, marker = i, m
			}
		}
		if idx < 0 {
			out = append(out, s)
			break
		}
		if idx > 0 {
			out = append(out, s[:idx])
		}
		out = append(out, marker)
		s = s[idx+len(marker):]
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func userMessages(msgs []conversation.Message) []conversation.Message {
	var out []conversation.Message
	for _, m := range msgs {
		if m.Role == conversation.RoleUser {
			out = append(out, m)
		}
	}
	return out
}

// title is the first user message, shortened.
func title(s *Session) string {
	users := userMessages(s.Messages)
	if len(users) == 0 {
		return "conversation"
	}
	return util.Preview(users[0].Content, 50)
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = strings.TrimSuffix(s, "...")
	runes := []rune(s)
	if len(runes) > 40 {
		runes = runes[:40]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}
