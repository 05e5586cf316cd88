// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package section

import (
	"fmt"
	"strings"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies what a dispatch Event asks the surface to do.
type EventType int

const (
	// EventTranscript appends Text to the main transcript with Style.
	EventTranscript EventType = iota
	// EventOpenPanel creates a live panel for Kind titled Title.
	EventOpenPanel
	// EventPanelAppend appends Text to the open panel.
	EventPanelAppend
	// EventClosePanel discards the open panel.
	EventClosePanel
	// EventFlush writes the finished section Kind as one labeled block.
	// Text holds the raw accumulated content; Block() renders it.
	EventFlush
)

func (t EventType) String() string {
	switch t {
	case EventTranscript:
		return "transcript"
	case EventOpenPanel:
		return "open_panel"
	case EventPanelAppend:
		return "panel_append"
	case EventClosePanel:
		return "close_panel"
	case EventFlush:
		return "flush"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is one instruction produced by the Dispatcher.
type Event struct {
	Type  EventType
	Kind  Kind
	Text  string
	Title string
	Style Style
}

// Block renders a flush event as the labeled transcript block
// "<Label>:\n<content>".
func (e Event) Block() string {
	return e.Kind.Label() + ":\n" + e.Text
}

// =============================================================================
// UNTERMINATED SECTION POLICY
// =============================================================================

// UnterminatedPolicy decides what Finish does with a section that is still
// open when the stream ends.
type UnterminatedPolicy string

const (
	// LeaveOpen emits nothing: the content stays only in the live panel.
	LeaveOpen UnterminatedPolicy = "leave"
	// FlushOnFinish closes the panel and flushes the content as if the
	// closing marker had arrived.
	FlushOnFinish UnterminatedPolicy = "flush"
)

// ParsePolicy validates a policy name from configuration.
func ParsePolicy(s string) (UnterminatedPolicy, error) {
	switch p := UnterminatedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LeaveOpen, FlushOnFinish:
		return p, nil
	case "":
		return LeaveOpen, nil
	default:
		return "", fmt.Errorf("unknown unterminated section policy %q (want leave or flush)", s)
	}
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher demultiplexes the fragments of one assistant turn into the
// plain transcript and the thinking/analyzing sections.
//
// Markers are found by substring containment on each raw fragment, so a
// marker split across two fragments is never recognized. Marker text is
// never stripped: the fragment carrying it is payload of the section it
// opens or closes.
//
// A Dispatcher is not safe for concurrent use; one turn owns one Dispatcher.
type Dispatcher struct {
	state   State
	content strings.Builder
	policy  UnterminatedPolicy
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithUnterminatedPolicy sets what Finish does with an open section.
func WithUnterminatedPolicy(p UnterminatedPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// NewDispatcher returns a Dispatcher in the Plain state.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{state: Plain, policy: LeaveOpen}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current dispatch state.
func (d *Dispatcher) State() State {
	return d.state
}

// Pending returns the content accumulated in the open section so far.
func (d *Dispatcher) Pending() string {
	return d.content.String()
}

// Dispatch classifies one fragment and returns the events it causes, in the
// order the surface must apply them. Empty fragments cause no events.
//
// Precedence within a fragment: <thinking>, then <analyzing>, then either
// closing marker. At most one transition fires per fragment.
func (d *Dispatcher) Dispatch(fragment string) []Event {
	if fragment == "" {
		return nil
	}

	var events []Event

	if k, ok := openingMarker(fragment); ok {
		events = d.open(events, k)
		return d.appendSection(events, fragment)
	}

	if !d.state.IsPlain() && hasClosingMarker(fragment) {
		events = d.appendSection(events, fragment)
		return d.close(events)
	}

	if d.state.IsPlain() {
		return append(events, Event{Type: EventTranscript, Text: fragment, Style: StyleAssistant})
	}
	return d.appendSection(events, fragment)
}

// Finish is called once when the stream completes. It applies the
// unterminated section policy and returns any resulting events.
func (d *Dispatcher) Finish() []Event {
	if d.state.IsPlain() || d.policy != FlushOnFinish {
		return nil
	}
	return d.close(nil)
}

// open flushes any active section, then enters a fresh section of kind k.
func (d *Dispatcher) open(events []Event, k Kind) []Event {
	if !d.state.IsPlain() {
		events = d.close(events)
	}
	d.state = InSection(k)
	d.content.Reset()
	return append(events, Event{Type: EventOpenPanel, Kind: k, Title: k.Title()})
}

func (d *Dispatcher) appendSection(events []Event, fragment string) []Event {
	k, _ := d.state.Section()
	d.content.WriteString(fragment)
	return append(events, Event{Type: EventPanelAppend, Kind: k, Text: fragment, Style: k.Style()})
}

// close discards the panel and flushes the accumulated content as one block.
func (d *Dispatcher) close(events []Event) []Event {
	k, _ := d.state.Section()
	content := d.content.String()
	d.content.Reset()
	d.state = Plain
	return append(events,
		Event{Type: EventClosePanel, Kind: k},
		Event{Type: EventFlush, Kind: k, Text: content, Style: k.Style()},
	)
}

func openingMarker(fragment string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.Contains(fragment, k.OpenMarker()) {
			return k, true
		}
	}
	return 0, false
}

func hasClosingMarker(fragment string) bool {
	for _, k := range Kinds {
		if strings.Contains(fragment, k.CloseMarker()) {
			return true
		}
	}
	return false
}
