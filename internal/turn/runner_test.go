// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/conversation"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// =============================================================================
// TEST DOUBLES
// =============================================================================

// call is one recorded Surface invocation.
type call struct {
	op    string
	text  string
	style section.Style
	panel PanelHandle
}

type recordingSurface struct {
	mu    sync.Mutex
	calls []call
	next  PanelHandle
}

func (s *recordingSurface) AppendTranscript(text string, style section.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op: "transcript", text: text, style: style})
}

func (s *recordingSurface) OpenSectionPanel(title string) PanelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.calls = append(s.calls, call{op: "open", text: title, panel: s.next})
	return s.next
}

func (s *recordingSurface) AppendToPanel(h PanelHandle, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op: "panel", text: text, panel: h})
}

func (s *recordingSurface) CloseSectionPanel(h PanelHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{op: "close", panel: h})
}

func (s *recordingSurface) ops(op string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

// fakeStreamer replays fixed chunks and records the prompts it was given.
type fakeStreamer struct {
	mu      sync.Mutex
	chunks  []ollama.StreamChunk
	prompts []string
	models  []string
}

func (f *fakeStreamer) GenerateChan(ctx context.Context, model, prompt string) <-chan ollama.StreamChunk {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.models = append(f.models, model)
	chunks := f.chunks
	f.mu.Unlock()

	ch := make(chan ollama.StreamChunk)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func fragments(parts ...string) []ollama.StreamChunk {
	chunks := make([]ollama.StreamChunk, 0, len(parts)+1)
	for _, p := range parts {
		chunks = append(chunks, ollama.StreamChunk{Content: p})
	}
	return append(chunks, ollama.StreamChunk{Done: true, CompletionTokens: len(parts), EvalDuration: time.Second})
}

func testSettings() Settings {
	return Settings{Model: "qwen2", SystemPrompt: "S", AssistantCue: "Assistant:", Policy: section.LeaveOpen}
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestRun_PlainReply(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("Hel", "lo")}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "  hi  ", surface)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, "Hello", res.Content)
	assert.Equal(t, telemetry.OutcomeOK, res.Record.Outcome)
	assert.Equal(t, 2, res.Record.CompletionTokens)
	assert.NotEmpty(t, res.Record.ID)

	assert.Equal(t, []call{
		{op: "transcript", text: "You: hi", style: section.StyleUser},
		{op: "transcript", text: "Hel", style: section.StyleAssistant},
		{op: "transcript", text: "lo", style: section.StyleAssistant},
	}, surface.calls)

	assert.Equal(t, "System: S\nHuman: hi\nAssistant: Hello", r.Conversation().Format())
	assert.Equal(t, []string{"System: S\nHuman: hi\nAssistant:"}, client.prompts)
}

func TestRun_ThinkingSection(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("<thinking>", "abc", "</thinking>", "Answer")}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "why?", surface)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, []call{
		{op: "transcript", text: "You: why?", style: section.StyleUser},
		{op: "open", text: "Thinking Process", panel: 1},
		{op: "panel", text: "<thinking>", panel: 1},
		{op: "panel", text: "abc", panel: 1},
		{op: "panel", text: "</thinking>", panel: 1},
		{op: "close", panel: 1},
		{op: "transcript", text: "Thinking:\n<thinking>abc</thinking>", style: section.StyleThinking},
		{op: "transcript", text: "Answer", style: section.StyleAssistant},
	}, surface.calls)

	// The stored reply keeps the markers.
	last, ok := r.Conversation().Last()
	require.True(t, ok)
	assert.Equal(t, "<thinking>abc</thinking>Answer", last.Content)
	assert.Equal(t, 1, res.Record.Sections)
}

func TestRun_AnalyzingPreemptsThinking(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("<thinking>", "t", "<analyzing>", "a", "</analyzing>")}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	_, err := r.Run(context.Background(), "q", surface)
	require.NoError(t, err)

	opens := surface.ops("open")
	require.Len(t, opens, 2)
	assert.Equal(t, "Thinking Process", opens[0].text)
	assert.Equal(t, "Analysis", opens[1].text)

	closes := surface.ops("close")
	require.Len(t, closes, 2)
	assert.Equal(t, PanelHandle(1), closes[0].panel)
	assert.Equal(t, PanelHandle(2), closes[1].panel)

	blocks := surface.ops("transcript")
	require.Len(t, blocks, 3)
	assert.Equal(t, "Thinking:\n<thinking>t", blocks[1].text)
	assert.Equal(t, "Analyzing:\n<analyzing>a</analyzing>", blocks[2].text)
}

func TestRun_EmptyResponse(t *testing.T) {
	client := &fakeStreamer{chunks: []ollama.StreamChunk{{Done: true}}}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "hi", surface)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, telemetry.OutcomeEmpty, res.Record.Outcome)
	lines := surface.ops("transcript")
	require.Len(t, lines, 2)
	assert.Equal(t, EmptyResponseMessage, lines[1].text)
	assert.Equal(t, section.StyleInfo, lines[1].style)

	// No assistant message is appended.
	last, _ := r.Conversation().Last()
	assert.Equal(t, conversation.RoleUser, last.Role)
	assert.Equal(t, 2, r.Conversation().Len())
}

func TestRun_ErrorKeepsUserMessage(t *testing.T) {
	client := &fakeStreamer{chunks: []ollama.StreamChunk{
		{Content: "partial"},
		{Error: ollama.ErrNotRunning, Done: true},
	}}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "hi", surface)
	require.NoError(t, err)
	require.ErrorIs(t, res.Err, ollama.ErrNotRunning)
	assert.Equal(t, telemetry.OutcomeError, res.Record.Outcome)

	errs := 0
	for _, c := range surface.ops("transcript") {
		if c.style == section.StyleError {
			errs++
			assert.Contains(t, c.text, "cannot reach Ollama")
		}
	}
	assert.Equal(t, 1, errs, "exactly one error line")

	assert.Equal(t, "System: S\nHuman: hi", r.Conversation().Format())
}

func TestRun_UnterminatedSection(t *testing.T) {
	tests := []struct {
		policy  section.UnterminatedPolicy
		flushed bool
	}{
		{section.LeaveOpen, false},
		{section.FlushOnFinish, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.policy), func(t *testing.T) {
			settings := testSettings()
			settings.Policy = tc.policy
			client := &fakeStreamer{chunks: fragments("<thinking>", "never closed")}
			r := NewRunner(client, settings)
			surface := &recordingSurface{}

			res, err := r.Run(context.Background(), "q", surface)
			require.NoError(t, err)
			require.NoError(t, res.Err)

			assert.Equal(t, tc.flushed, len(surface.ops("close")) == 1)
			blocks := surface.ops("transcript")
			if tc.flushed {
				require.Len(t, blocks, 2)
				assert.Equal(t, "Thinking:\n<thinking>never closed", blocks[1].text)
			} else {
				assert.Len(t, blocks, 1)
			}
			// Either way the reply is recorded.
			last, _ := r.Conversation().Last()
			assert.Equal(t, "<thinking>never closed", last.Content)
		})
	}
}

func TestRun_RejectsEmptyInput(t *testing.T) {
	r := NewRunner(&fakeStreamer{}, testSettings())
	surface := &recordingSurface{}

	_, err := r.Run(context.Background(), " \t\n", surface)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, surface.calls)
	assert.True(t, r.Conversation().IsEmpty())
}

func TestRun_NormalizesInput(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("ok")}
	r := NewRunner(client, testSettings())

	// "e" + combining acute accent becomes the precomposed "\u00e9".
	_, err := r.Run(context.Background(), "cafe\u0301", &recordingSurface{})
	require.NoError(t, err)

	msgs := r.Conversation().Messages()
	assert.Equal(t, "caf\u00e9", msgs[1].Content)
}

func TestRun_SystemPromptOnlyOnce(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("A")}
	r := NewRunner(client, testSettings())

	for _, q := range []string{"one", "two"} {
		_, err := r.Run(context.Background(), q, &recordingSurface{})
		require.NoError(t, err)
	}

	assert.Equal(t, "System: S\nHuman: one\nAssistant: A\nHuman: two\nAssistant: A", r.Conversation().Format())
	require.Len(t, client.prompts, 2)
	assert.Equal(t, "System: S\nHuman: one\nAssistant: A\nHuman: two\nAssistant:", client.prompts[1])
}

func TestRun_SettingsApplyToNextTurn(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("A")}
	r := NewRunner(client, testSettings())

	_, err := r.Run(context.Background(), "one", &recordingSurface{})
	require.NoError(t, err)

	r.SetModel("llama3")
	_, err = r.Run(context.Background(), "two", &recordingSurface{})
	require.NoError(t, err)

	assert.Equal(t, []string{"qwen2", "llama3"}, client.models)
}

func TestRun_NoCue(t *testing.T) {
	settings := testSettings()
	settings.AssistantCue = ""
	client := &fakeStreamer{chunks: fragments("A")}
	r := NewRunner(client, settings)

	_, err := r.Run(context.Background(), "hi", &recordingSurface{})
	require.NoError(t, err)
	assert.Equal(t, "System: S\nHuman: hi", client.prompts[0])
}

// blockingStreamer holds the stream open until release is closed.
type blockingStreamer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingStreamer) GenerateChan(ctx context.Context, model, prompt string) <-chan ollama.StreamChunk {
	ch := make(chan ollama.StreamChunk)
	go func() {
		defer close(ch)
		close(b.started)
		select {
		case <-b.release:
		case <-ctx.Done():
			return
		}
		select {
		case ch <- ollama.StreamChunk{Content: "done", Done: true}:
		case <-ctx.Done():
		}
	}()
	return ch
}

func TestRun_BusyRefusesSecondTurnAndReset(t *testing.T) {
	client := &blockingStreamer{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(client, testSettings())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Run(context.Background(), "first", &recordingSurface{})
	}()

	<-client.started
	assert.True(t, r.Busy())

	_, err := r.Run(context.Background(), "second", &recordingSurface{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, r.Reset(), ErrBusy)

	close(client.release)
	<-done

	assert.False(t, r.Busy())
	require.NoError(t, r.Reset())
	assert.True(t, r.Conversation().IsEmpty())
}

func TestRun_Cancelled(t *testing.T) {
	client := &blockingStreamer{started: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-client.started
		cancel()
	}()

	res, err := r.Run(ctx, "hi", surface)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, telemetry.OutcomeCancelled, res.Record.Outcome)

	for _, c := range surface.ops("transcript") {
		assert.NotEqual(t, section.StyleError, c.style, "cancellation is not shown as an error")
	}
}

func TestRun_RecordsStats(t *testing.T) {
	tracker := telemetry.NewTracker()
	r := NewRunner(&fakeStreamer{chunks: fragments("a", "b")}, testSettings(), WithTracker(tracker))

	_, err := r.Run(context.Background(), "hi", &recordingSurface{})
	require.NoError(t, err)

	last, ok := tracker.Last()
	require.True(t, ok)
	assert.Equal(t, telemetry.OutcomeOK, last.Outcome)
	assert.Equal(t, 3, last.Chunks)
	assert.Equal(t, "qwen2", last.Model)
}

// =============================================================================
// END TO END WITH THE HTTP CLIENT
// =============================================================================

func TestRun_AgainstOllamaServer(t *testing.T) {
	lines := []string{"<thinking>", "plan", "</thinking>", "Final answer"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body ollama.GenerateRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !strings.HasSuffix(body.Prompt, "Human: hello\nAssistant:") {
			t.Errorf("prompt = %q", body.Prompt)
		}
		flusher, _ := w.(http.Flusher)
		for _, l := range lines {
			b, _ := json.Marshal(ollama.GenerateResponse{Response: l})
			fmt.Fprintln(w, string(b))
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprintln(w, `{"response":"","done":true,"eval_count":4,"eval_duration":1000000000}`)
	}))
	defer srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "hello", surface)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, "<thinking>plan</thinking>Final answer", res.Content)
	assert.Equal(t, 4, res.Record.CompletionTokens)
	assert.InDelta(t, 4.0, res.Record.TokensPerSecond(), 0.001)

	blocks := surface.ops("transcript")
	require.Len(t, blocks, 3)
	assert.Equal(t, "Thinking:\n<thinking>plan</thinking>", blocks[1].text)
	assert.Equal(t, "Final answer", blocks[2].text)
}

func TestRun_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url, Timeout: time.Second})
	r := NewRunner(client, testSettings())
	surface := &recordingSurface{}

	res, err := r.Run(context.Background(), "hello", surface)
	require.NoError(t, err)
	assert.True(t, ollama.IsNotRunning(res.Err), "err = %v", res.Err)
}

// =============================================================================
// ERROR LINES
// =============================================================================

func TestErrorLine(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ollama.ErrNotRunning, "cannot reach Ollama"},
		{ollama.ErrTimeout, "timed out"},
		{ollama.ErrModelNotFound, `model "qwen2" not found`},
		{&ollama.StreamDecodeError{Line: []byte("{bad"), Cause: fmt.Errorf("eof")}, "malformed response"},
		{fmt.Errorf("boom"), "Error: boom"},
	}
	for _, tc := range tests {
		got := ErrorLine(tc.err, "qwen2")
		assert.Contains(t, got, tc.want)
		assert.NotContains(t, got, "\n")
	}
}

// =============================================================================
// CONFIG WIRING
// =============================================================================

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Local.OllamaURL = "http://gpu-box:11434"
	cfg.Local.Model = "qwen2:7b"
	cfg.Local.TimeoutSecs = 30
	cfg.Local.Temperature = 0.7
	cfg.Dispatch.Unterminated = "flush"

	client := ClientFromConfig(cfg)
	cc := client.Config()
	assert.Equal(t, "http://gpu-box:11434", cc.BaseURL)
	assert.Equal(t, 30*time.Second, cc.Timeout)
	assert.Equal(t, "qwen2:7b", cc.DefaultModel)
	require.NotNil(t, cc.Options)
	assert.Equal(t, 0.7, cc.Options.Temperature)

	s := SettingsFromConfig(cfg)
	assert.Equal(t, "qwen2:7b", s.Model)
	assert.Equal(t, section.FlushOnFinish, s.Policy)
	assert.Equal(t, config.DefaultSystemPrompt, s.SystemPrompt)
	assert.Equal(t, config.DefaultAssistantCue, s.AssistantCue)
}

func TestRun_DefaultPromptFromConfig(t *testing.T) {
	client := &fakeStreamer{chunks: fragments("ok")}
	r := NewRunner(client, SettingsFromConfig(config.Default()))

	_, err := r.Run(context.Background(), "hi", &recordingSurface{})
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	p := client.prompts[0]
	assert.True(t, strings.HasPrefix(p, "System: "+config.DefaultSystemPrompt+"\n"))
	assert.True(t, strings.HasSuffix(p, "\nHuman: hi\nAssistant: Initiating comprehensive analysis and response formulation."))
}

func TestFromConfig_NoOptionsByDefault(t *testing.T) {
	assert.Nil(t, ClientFromConfig(config.Default()).Config().Options)
}
