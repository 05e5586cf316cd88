// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is a small HTTP client for a local Ollama server.
//
// Only the streaming /api/generate endpoint is used for chat turns: the
// caller sends one fully formatted prompt and receives newline-delimited
// JSON objects of the form {"response": "...", "done": false} until an
// object with "done": true arrives or the server closes the connection.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - StreamReader: NDJSON line decoder for generate streams
//   - StreamChunk: one decoded fragment plus completion statistics
//   - ClientError / StreamDecodeError: failure taxonomy
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://127.0.0.1:11434",
//	    Timeout: 60 * time.Second,
//	})
//	for chunk := range client.GenerateChan(ctx, "qwen2", prompt) {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Content)
//	}
//
// # Errors
//
// Network failures, timeouts and non-2xx statuses are reported once as a
// *ClientError and are never retried. A line that is not valid JSON aborts
// the stream with a *StreamDecodeError.
package ollama
