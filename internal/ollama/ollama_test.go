// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// ndjsonServer serves the given lines on /api/generate, flushing after each.
func ndjsonServer(t *testing.T, lines []string, inspect func(GenerateRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
}

func fragment(s string, done bool) string {
	b, _ := json.Marshal(GenerateResponse{Response: s, Done: done})
	return string(b)
}

func collect(t *testing.T, c *Client, prompt string) ([]StreamChunk, error) {
	t.Helper()
	var chunks []StreamChunk
	err := c.Generate(context.Background(), "", prompt, func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	return chunks, err
}

// =============================================================================
// GENERATE TESTS
// =============================================================================

func TestGenerate_DeliversFragmentsInOrder(t *testing.T) {
	srv := ndjsonServer(t, []string{
		fragment("Hel", false),
		fragment("lo", false),
		fragment("", true),
		fragment("after done", false),
	}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	chunks, err := collect(t, c, "Human: hi")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (nothing after done)", len(chunks))
	}
	if chunks[0].Content != "Hel" || chunks[1].Content != "lo" {
		t.Errorf("contents = %q, %q", chunks[0].Content, chunks[1].Content)
	}
	if !chunks[2].Done {
		t.Error("last chunk should be Done")
	}
}

func TestGenerate_RequestBody(t *testing.T) {
	var got GenerateRequest
	srv := ndjsonServer(t, []string{fragment("", true)}, func(req GenerateRequest) {
		got = req
	})
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/", DefaultModel: "qwen2"})
	if _, err := collect(t, c, "System: S\nHuman: U"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if got.Model != "qwen2" {
		t.Errorf("Model = %q, want qwen2", got.Model)
	}
	if got.Prompt != "System: S\nHuman: U" {
		t.Errorf("Prompt = %q", got.Prompt)
	}
	if !got.Stream {
		t.Error("Stream should be true")
	}
}

func TestGenerate_EndsOnConnectionClose(t *testing.T) {
	srv := ndjsonServer(t, []string{fragment("partial", false)}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	chunks, err := collect(t, c, "p")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Done {
		t.Errorf("chunks = %+v, want one non-done chunk", chunks)
	}
}

func TestGenerate_MalformedLine(t *testing.T) {
	srv := ndjsonServer(t, []string{
		fragment("ok", false),
		"{not json",
		fragment("never", false),
	}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	chunks, err := collect(t, c, "p")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !IsDecode(err) {
		t.Errorf("IsDecode(%v) = false", err)
	}
	if !errors.Is(err, ErrStreamDecode) {
		t.Errorf("errors.Is(%v, ErrStreamDecode) = false", err)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks before the bad line, want 1", len(chunks))
	}
}

func TestGenerate_ErrorLine(t *testing.T) {
	srv := ndjsonServer(t, []string{`{"error":"out of memory"}`}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	_, err := collect(t, c, "p")

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("error = %v, want *ClientError", err)
	}
	if clientErr.Type != ErrTypeInvalidResponse || !strings.Contains(clientErr.Error(), "out of memory") {
		t.Errorf("error = %v", clientErr)
	}
}

func TestGenerate_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, `{"error":"model 'x' not found"}`, IsModelNotFound},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, func(err error) bool {
			var ce *ClientError
			return errors.As(err, &ce) && ce.Type == ErrTypeInvalidResponse && strings.Contains(ce.Message, "boom")
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
			_, err := collect(t, c, "p")
			if err == nil || !tc.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestGenerate_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: time.Second})
	_, err := collect(t, c, "p")
	if !IsNotRunning(err) {
		t.Errorf("IsNotRunning(%v) = false", err)
	}
}

func TestGenerate_IdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, fragment("first", false))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
	chunks, err := collect(t, c, "p")
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false", err)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(chunks))
	}
}

func TestGenerate_SlowConsumerIsNotIdle(t *testing.T) {
	srv := ndjsonServer(t, []string{fragment("a", false), fragment("b", false), fragment("", true)}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
	var got []string
	err := c.Generate(context.Background(), "", "p", func(chunk StreamChunk) {
		if chunk.Content == "a" {
			time.Sleep(300 * time.Millisecond)
		}
		got = append(got, chunk.Content)
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Join(got, "|") != "a|b|" {
		t.Errorf("chunks = %q", got)
	}
}

func TestGenerate_ParentCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	err := c.Generate(ctx, "", "p", func(StreamChunk) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGenerateChan_ErrorIsFinalChunk(t *testing.T) {
	srv := ndjsonServer(t, []string{fragment("a", false), "garbage"}, nil)
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	var chunks []StreamChunk
	for chunk := range c.GenerateChan(context.Background(), "", "p") {
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	last := chunks[1]
	if last.Error == nil || !last.Done {
		t.Errorf("last chunk = %+v, want Done with Error", last)
	}
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_LastLineWithoutNewline(t *testing.T) {
	input := fragment("a", false) + "\n\n" + fragment("b", false)
	sr := NewStreamReader(strings.NewReader(input))

	var got []string
	if err := sr.Process(context.Background(), func(c StreamChunk) {
		got = append(got, c.Content)
	}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if strings.Join(got, "|") != "a|b" {
		t.Errorf("got %q, want a|b", got)
	}
	if sr.Text() != "ab" || sr.Fragments() != 2 {
		t.Errorf("accumulated = %q, count = %d", sr.Text(), sr.Fragments())
	}
}

func TestStreamReader_FinalStats(t *testing.T) {
	line := `{"model":"qwen2","response":"","done":true,"eval_count":100,"eval_duration":1000000000}`
	sr := NewStreamReader(strings.NewReader(line + "\n"))

	var final StreamChunk
	_ = sr.Process(context.Background(), func(c StreamChunk) { final = c })

	if final.Model != "qwen2" || final.CompletionTokens != 100 {
		t.Errorf("final = %+v", final)
	}
	if tps := final.TokensPerSecond(); tps < 99 || tps > 101 {
		t.Errorf("TokensPerSecond() = %f, want 100", tps)
	}
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[{"name":"qwen2:latest","size":4400000000}]}`)
	}))
	defer srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 || models[0].Name != "qwen2:latest" {
		t.Errorf("models = %+v", models)
	}
}

func TestModelInfo_FormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1024 * 1024, "1.0 MB"},
		{2 * 1024 * 1024 * 1024, "2.0 GB"},
	}

	for _, tc := range tests {
		m := &ModelInfo{Size: tc.size}
		if got := m.FormatSize(); got != tc.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	cfg := c.Config()

	if cfg.BaseURL != defaultBaseURL || cfg.Timeout != defaultTimeout || c.DefaultModel() != "qwen2" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
