// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
)

// ErrSystemNotFirst is returned when a system message would not end up as the
// only system message at index 0.
var ErrSystemNotFirst = errors.New("system message must be the first and only system message")

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered, append-only log of one chat session.
//
// There is no size limit: the log grows for the lifetime of the session and
// is only emptied by Reset. All methods are safe for concurrent use.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message

	now func() time.Time
}

// New returns an empty conversation.
func New() *Conversation {
	return &Conversation{now: time.Now}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the log.
func (c *Conversation) Append(role Role, content string) error {
	if !role.Valid() {
		_, err := ParseRole(string(role))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if role == RoleSystem && len(c.messages) > 0 {
		return ErrSystemNotFirst
	}
	c.messages = append(c.messages, Message{Role: role, Content: content, Timestamp: c.now()})
	return nil
}

// EnsureSystem applies the lazy system-prompt rule: when the log is empty the
// system message is appended and true is returned. A non-empty log is left
// untouched, even if it has no system message.
func (c *Conversation) EnsureSystem(prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) > 0 {
		return false
	}
	c.messages = append(c.messages, Message{Role: RoleSystem, Content: prompt, Timestamp: c.now()})
	return true
}

// Reset clears the log entirely.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// Last returns the most recent message; ok is false when the log is empty.
func (c *Conversation) Last() (msg Message, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// =============================================================================
// PROMPT FORMATTING
// =============================================================================

// Format renders the log as a prompt: one "<Label>: <content>" line per
// message, newline-joined, with trailing whitespace trimmed.
func (c *Conversation) Format() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	for i, msg := range c.messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(msg.Line())
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace)
}
