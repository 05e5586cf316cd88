// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	defaultBaseURL = "http://127.0.0.1:11434"
	defaultTimeout = 60 * time.Second
	defaultModel   = "qwen2"
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	BaseURL string

	// Timeout bounds connecting, waiting for response headers and every
	// silence between streamed bytes (default: 60s). It never bounds the
	// total length of a generation.
	Timeout time.Duration

	// DefaultModel to use if none specified (default: "qwen2")
	DefaultModel string

	// Options are sent with every generate request when non-nil.
	Options *Options
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one Ollama server. It is safe for concurrent use.
//
// Example:
//
//	client := ollama.NewClient()
//	err := client.Generate(ctx, "qwen2", prompt, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.DefaultModel == "" {
		config.DefaultModel = defaultModel
	}

	// The stream client has no overall Timeout; idleReader bounds silence.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: config.Timeout}).DialContext,
		ResponseHeaderTimeout: config.Timeout,
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
	}
}

// =============================================================================
// HEALTH CHECK AND MODELS
// =============================================================================

// get issues a bounded GET against path on the configured server.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "bad request URL", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return resp, nil
}

// CheckRunning reports nil when the Ollama root endpoint answers 200.
func (c *Client) CheckRunning(ctx context.Context) error {
	resp, err := c.get(ctx, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return &ClientError{Type: ErrTypeConnection, Message: "Ollama answered " + resp.Status}
}

// ListModels returns the models installed on the server (/api/tags).
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp, "list models"); err != nil {
		return nil, err
	}

	var tags ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed model list", Cause: err}
	}
	return tags.Models, nil
}

// =============================================================================
// STREAMING GENERATE
// =============================================================================

// StreamCallback is called for each chunk received during streaming.
type StreamCallback func(chunk StreamChunk)

// Generate sends one streaming /api/generate request and calls the callback
// for each decoded line, synchronously and in arrival order. It returns when
// a chunk with Done set has been delivered, the server closes the body, or
// the first error occurs. Failures are never retried.
func (c *Client) Generate(ctx context.Context, model, prompt string, callback StreamCallback) error {
	if model == "" {
		model = c.config.DefaultModel
	}

	body, err := json.Marshal(GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  true,
		Options: c.config.Options,
	})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "encode generate request", Cause: err}
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "bad request URL", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, "generate"); err != nil {
		return err
	}

	idle := newIdleReader(resp.Body, c.config.Timeout, cancel)
	defer idle.Stop()

	// The idle clock stops while the consumer holds a chunk.
	held := func(chunk StreamChunk) {
		idle.Pause()
		defer idle.Resume()
		callback(chunk)
	}
	if err := NewStreamReader(idle).Process(ctx, held); err != nil {
		if errors.Is(context.Cause(ctx), errIdle) {
			return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: errIdle}
		}
		var clientErr *ClientError
		var decodeErr *StreamDecodeError
		if errors.As(err, &clientErr) || errors.As(err, &decodeErr) {
			return err
		}
		return transportError(ctx, err)
	}
	return nil
}

// GenerateChan runs Generate in a goroutine and delivers chunks on the
// returned channel. A terminal failure arrives as a final chunk with Error
// set. The channel is closed when the stream is over.
func (c *Client) GenerateChan(ctx context.Context, model, prompt string) <-chan StreamChunk {
	ch := make(chan StreamChunk)

	go func() {
		defer close(ch)

		err := c.Generate(ctx, model, prompt, func(chunk StreamChunk) {
			select {
			case ch <- chunk:
			case <-ctx.Done():
			}
		})

		if err != nil {
			select {
			case ch <- StreamChunk{Error: err, Done: true}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// Config returns the effective configuration, defaults filled in.
func (c *Client) Config() *ClientConfig { return c.config }

// DefaultModel is the model used when Generate is called without one.
func (c *Client) DefaultModel() string { return c.config.DefaultModel }

// transportError maps an http.Client.Do failure onto the client taxonomy.
func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) && !errors.Is(context.Cause(ctx), errIdle) {
		return ctxErr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running", Cause: err}
}

// statusError converts a non-2xx response into a ClientError, preferring
// the server's own error text when it sent one.
func statusError(resp *http.Response, prefix string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var ollamaErr OllamaError
	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&ollamaErr); err == nil {
		detail = ollamaErr.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		msg := ErrModelNotFound.Message
		if detail != "" {
			msg = detail
		}
		return &ClientError{Type: ErrTypeModelNotFound, Message: msg}
	}

	msg := prefix + ": " + resp.Status
	if detail != "" {
		msg += " (" + detail + ")"
	}
	return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
}
