// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"errors"
	"fmt"
)

// ErrorType classifies a ClientError.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeDecode
)

// ClientError is every failure the client returns, other than plain
// context cancellation.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is compares by Type only.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinels for errors.Is.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// StreamDecodeError reports an NDJSON line that could not be decoded.
// It aborts the turn; nothing after the bad line is read.
type StreamDecodeError struct {
	Line  []byte
	Cause error
}

func (e *StreamDecodeError) Error() string {
	const maxShown = 80
	line := e.Line
	if len(line) > maxShown {
		line = line[:maxShown]
	}
	return fmt.Sprintf("malformed stream line %q: %v", line, e.Cause)
}

func (e *StreamDecodeError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrStreamDecode) hold for any decode failure.
func (e *StreamDecodeError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == ErrTypeDecode
}

// ErrStreamDecode is the sentinel matched by every StreamDecodeError.
var ErrStreamDecode = &ClientError{Type: ErrTypeDecode, Message: "malformed stream"}

func IsModelNotFound(err error) bool { return errors.Is(err, ErrModelNotFound) }
func IsNotRunning(err error) bool { return errors.Is(err, ErrNotRunning) }
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsDecode reports a malformed stream line.
func IsDecode(err error) bool {
	var decodeErr *StreamDecodeError
	return errors.As(err, &decodeErr)
}
