// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plain

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/turn"
)

var ansiRE = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

type replyStreamer struct {
	fragments []string
	prompts   []string
}

func (s *replyStreamer) GenerateChan(ctx context.Context, model, prompt string) <-chan ollama.StreamChunk {
	s.prompts = append(s.prompts, prompt)
	ch := make(chan ollama.StreamChunk, len(s.fragments)+1)
	for _, f := range s.fragments {
		ch <- ollama.StreamChunk{Content: f}
	}
	ch <- ollama.StreamChunk{Done: true}
	close(ch)
	return ch
}

type staticModels []ollama.ModelInfo

func (m staticModels) ListModels(context.Context) ([]ollama.ModelInfo, error) {
	return m, nil
}

func newREPL(t *testing.T, input string, fragments ...string) (*REPL, *bytes.Buffer, *replyStreamer) {
	t.Helper()
	var out bytes.Buffer
	streamer := &replyStreamer{fragments: fragments}
	runner := turn.NewRunner(streamer, turn.Settings{Model: "qwen2", AssistantCue: "Assistant:"})
	r := NewREPL(runner, staticModels{{Name: "qwen2"}, {Name: "llama3"}}, NewScannerReader(strings.NewReader(input)), NewWriter(&out, true), nil)
	r.interrupt = false
	return r, &out, streamer
}

// =============================================================================
// WRITER
// =============================================================================

func TestWriter_StreamsAndBlocks(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, true)

	w.Info("banner")
	w.AppendTranscript("You: hi", section.StyleUser)
	w.AppendTranscript("Hel", section.StyleAssistant)
	w.AppendTranscript("lo", section.StyleAssistant)
	h := w.OpenSectionPanel("Thinking Process")
	w.AppendToPanel(h, "<thinking>")
	w.AppendToPanel(h, "a\nb")
	w.CloseSectionPanel(h)
	w.AppendTranscript("Thinking:\n<thinking>a\nb", section.StyleThinking)
	w.EndTurn()

	want := "banner\n" +
		"You: hi\n" +
		"Hello\n" +
		"[Thinking Process]\n" +
		"  | <thinking>a\n" +
		"  | b\n" +
		"Thinking:\n<thinking>a\nb\n"
	assert.Equal(t, want, stripANSI(out.String()))
}

func TestWriter_HiddenPanels(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, false)

	h := w.OpenSectionPanel("Analysis")
	w.AppendToPanel(h, "secret")
	w.CloseSectionPanel(h)

	got := stripANSI(out.String())
	assert.Equal(t, "[Analysis]\n", got)
}

func TestWriter_StaleHandleIgnored(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, true)

	old := w.OpenSectionPanel("Thinking Process")
	w.CloseSectionPanel(old)
	w.AppendToPanel(old, "late")

	assert.NotContains(t, out.String(), "late")
}

func TestWriter_EndTurnClosesStream(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, true)

	w.AppendTranscript("partial", section.StyleAssistant)
	w.EndTurn()
	w.AppendTranscript("next", section.StyleAssistant)
	w.EndTurn()

	assert.Equal(t, "partial\nnext\n", stripANSI(out.String()))
}

// =============================================================================
// LINE READER
// =============================================================================

func TestScannerReader(t *testing.T) {
	r := NewScannerReader(strings.NewReader("one\r\ntwo"))

	line, err := r.Prompt(promptText)
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = r.Prompt(promptText)
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = r.Prompt(promptText)
	assert.ErrorIs(t, err, io.EOF)
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_Turn(t *testing.T) {
	r, out, streamer := newREPL(t, "hello\n", "Hi ", "<analyzing>", "x", "</analyzing>", "there")
	require.NoError(t, r.Run(context.Background()))

	got := stripANSI(out.String())
	assert.Contains(t, got, turn.BannerStart)
	assert.Contains(t, got, "You: hello\nHi \n[Analysis]\n  | <analyzing>x</analyzing>\nAnalyzing:\n<analyzing>x</analyzing>\nthere\n")

	require.Len(t, streamer.prompts, 1)
	assert.Equal(t, "Human: hello\nAssistant:", streamer.prompts[0])
}

func TestREPL_Commands(t *testing.T) {
	r, out, _ := newREPL(t, "/model llama3\n/models\n/stats\n/bogus\n/quit\nnever sent\n", "ok")
	require.NoError(t, r.Run(context.Background()))

	got := stripANSI(out.String())
	assert.Contains(t, got, "Model set to llama3.")
	assert.Contains(t, got, "* llama3")
	assert.Contains(t, got, "  qwen2")
	assert.Contains(t, got, "Turns: 0")
	assert.Contains(t, got, "unknown command: /bogus")
	assert.NotContains(t, got, "never sent")
	assert.Equal(t, "llama3", r.runner.Settings().Model)
}

func TestREPL_Export(t *testing.T) {
	dir := t.TempDir()
	r, out, _ := newREPL(t, "hello\n/export json "+dir+"\n", "<analyzing>", "x", "</analyzing>", "ok")
	require.NoError(t, r.Run(context.Background()))

	got := stripANSI(out.String())
	require.Contains(t, got, "Exported to "+dir)

	matches, err := filepath.Glob(filepath.Join(dir, "reasonchat_hello_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "analyzing"`)
}

// completingReader is a scripted line editor that accepts a completer.
type completingReader struct {
	LineReader
	complete liner.Completer
}

func (c *completingReader) SetCompleter(f liner.Completer) { c.complete = f }

func TestREPL_CompletionUsesModelList(t *testing.T) {
	var out bytes.Buffer
	runner := turn.NewRunner(&replyStreamer{}, turn.Settings{Model: "qwen2", AssistantCue: "Assistant:"})
	input := &completingReader{LineReader: NewScannerReader(strings.NewReader(""))}
	r := NewREPL(runner, staticModels{{Name: "qwen2"}, {Name: "llama3"}}, input, NewWriter(&out, true), nil)
	r.interrupt = false

	require.NoError(t, r.Run(context.Background()))
	require.NotNil(t, input.complete)
	assert.Equal(t, []string{"/model llama3"}, input.complete("/model l"))
	assert.Equal(t, []string{"/stats"}, input.complete("/st"))
}

func TestREPL_Clear(t *testing.T) {
	r, out, streamer := newREPL(t, "first\n/clear\nsecond\n", "ok")
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, stripANSI(out.String()), turn.BannerCleared)
	require.Len(t, streamer.prompts, 2)
	assert.Equal(t, "Human: second\nAssistant:", streamer.prompts[1])
}

func TestREPL_EmptyLinesSkipped(t *testing.T) {
	r, _, streamer := newREPL(t, "\n   \n", "ok")
	require.NoError(t, r.Run(context.Background()))
	assert.Empty(t, streamer.prompts)
}
