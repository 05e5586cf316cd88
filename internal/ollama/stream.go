// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// NDJSON DECODING
// =============================================================================

// StreamReader decodes an /api/generate body one line at a time.
type StreamReader struct {
	reader    *bufio.Reader
	text      strings.Builder
	fragments int
	model     string
}

// NewStreamReader wraps r.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each chunk, in order.
// It returns nil when a chunk with Done set has been delivered or the body
// ends cleanly, and stops at the first malformed line.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := s.readChunk()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if chunk == nil {
			continue
		}

		callback(*chunk)
		if chunk.Done {
			return nil
		}
	}
}

// readChunk decodes the next line, or returns (nil, nil) for a blank one.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err != io.EOF || len(bytes.TrimSpace(line)) == 0 {
			return nil, err
		}
		// Last line without a trailing newline: decode it, report EOF next call.
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var response GenerateResponse
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, &StreamDecodeError{Line: append([]byte(nil), line...), Cause: err}
	}

	if response.Error != "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: response.Error}
	}

	if response.Model != "" {
		s.model = response.Model
	}

	if response.Response != "" {
		s.text.WriteString(response.Response)
		s.fragments++
	}

	chunk := &StreamChunk{
		Content:    response.Response,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      s.model,
	}

	if response.Done {
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.EvalDuration = time.Duration(response.EvalDuration)
		chunk.PromptTokens = response.PromptEvalCount
		chunk.CompletionTokens = response.EvalCount
	}

	return chunk, nil
}

// Text is everything streamed so far.
func (s *StreamReader) Text() string { return s.text.String() }

// Fragments counts the non-empty fragments read.
func (s *StreamReader) Fragments() int { return s.fragments }

// Model is the model name the server reported.
func (s *StreamReader) Model() string { return s.model }

// =============================================================================
// IDLE TIMEOUT
// =============================================================================

// errIdle is the cancel cause used when the server stops sending bytes.
var errIdle = errors.New("stream idle timeout")

// idleReader cancels a request when no bytes arrive for the given duration.
// The total duration of a generation is not bounded, only the silence
// between reads. The clock is paused while the consumer holds a chunk.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	cancel  context.CancelCauseFunc

	mu      sync.Mutex
	timer   *time.Timer
	paused  bool
	stopped bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelCauseFunc) *idleReader {
	ir := &idleReader{r: r, timeout: timeout, cancel: cancel}
	ir.timer = time.AfterFunc(timeout, func() { cancel(errIdle) })
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.mu.Lock()
		if !ir.paused && !ir.stopped {
			ir.timer.Reset(ir.timeout)
		}
		ir.mu.Unlock()
	}
	return n, err
}

// Pause stops the clock until Resume.
func (ir *idleReader) Pause() {
	ir.mu.Lock()
	ir.paused = true
	ir.timer.Stop()
	ir.mu.Unlock()
}

// Resume restarts the clock with a full timeout.
func (ir *idleReader) Resume() {
	ir.mu.Lock()
	ir.paused = false
	if !ir.stopped {
		ir.timer.Reset(ir.timeout)
	}
	ir.mu.Unlock()
}

// Stop releases the timer.
func (ir *idleReader) Stop() {
	ir.mu.Lock()
	ir.stopped = true
	ir.timer.Stop()
	ir.mu.Unlock()
}
