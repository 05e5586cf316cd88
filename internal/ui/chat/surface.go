// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/turn"
)

// Sender delivers messages to a running Bubble Tea program. *tea.Program
// implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramRef is a Sender whose program is attached after construction. The
// model needs a surface before tea.NewProgram exists, so it is handed a
// ProgramRef and the program is set once created. Messages sent before Set
// are dropped.
type ProgramRef struct {
	mu sync.Mutex
	p  Sender
}

// Set attaches the running program.
func (r *ProgramRef) Set(p Sender) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

// Send implements Sender.
func (r *ProgramRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// ProgramSurface is the turn.Surface of the terminal UI. Every call becomes
// a message posted to the program, so the turn goroutine never touches the
// model directly. Send blocks until the event loop has accepted the message,
// which keeps surface calls in order.
type ProgramSurface struct {
	sender Sender
	next   atomic.Int64
}

// NewProgramSurface creates a surface that posts to s.
func NewProgramSurface(s Sender) *ProgramSurface {
	return &ProgramSurface{sender: s}
}

// AppendTranscript implements turn.Surface.
func (p *ProgramSurface) AppendTranscript(text string, style section.Style) {
	p.sender.Send(TranscriptMsg{Text: text, Style: style})
}

// OpenSectionPanel implements turn.Surface.
func (p *ProgramSurface) OpenSectionPanel(title string) turn.PanelHandle {
	h := turn.PanelHandle(p.next.Add(1))
	p.sender.Send(PanelOpenMsg{Handle: h, Title: title})
	return h
}

// AppendToPanel implements turn.Surface.
func (p *ProgramSurface) AppendToPanel(h turn.PanelHandle, text string) {
	p.sender.Send(PanelAppendMsg{Handle: h, Text: text})
}

// CloseSectionPanel implements turn.Surface.
func (p *ProgramSurface) CloseSectionPanel(h turn.PanelHandle) {
	p.sender.Send(PanelCloseMsg{Handle: h})
}
