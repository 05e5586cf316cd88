// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// TURN RECORDS
// =============================================================================

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeEmpty     Outcome = "empty"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// TurnRecord captures one request/stream cycle.
type TurnRecord struct {
	ID        string        `json:"id"`
	Model     string        `json:"model"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Outcome   Outcome       `json:"outcome"`

	// Chunks is the number of stream lines received.
	Chunks int `json:"chunks"`

	// Token counts reported by the server on the final chunk.
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	EvalDuration     time.Duration `json:"eval_duration"`

	// Sections is how many thinking/analyzing panels were opened.
	Sections int `json:"sections"`
}

// TokensPerSecond returns the server-side generation speed.
func (r TurnRecord) TokensPerSecond() float64 {
	if r.EvalDuration <= 0 {
		return 0
	}
	return float64(r.CompletionTokens) / r.EvalDuration.Seconds()
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker accumulates turn records for the lifetime of a session. Nothing is
// written to disk.
type Tracker struct {
	mu        sync.RWMutex
	startTime time.Time
	turns     []TurnRecord
	now       func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{startTime: time.Now(), now: time.Now}
}

// Record adds a finished turn.
func (t *Tracker) Record(r TurnRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, r)
}

// Last returns the most recent record.
func (t *Tracker) Last() (TurnRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.turns) == 0 {
		return TurnRecord{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Turns returns a copy of all records in order.
func (t *Tracker) Turns() []TurnRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TurnRecord, len(t.turns))
	copy(out, t.turns)
	return out
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates every recorded turn.
type Summary struct {
	Turns            int
	ByOutcome        map[Outcome]int
	PromptTokens     int
	CompletionTokens int
	TotalDuration    time.Duration
	// AvgTokensPerSecond is computed over successful turns only.
	AvgTokensPerSecond float64
	// Slowest is the longest successful turn.
	Slowest time.Duration
	Uptime  time.Duration
	Models  []string
}

// Summary computes aggregate statistics.
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{
		Turns:     len(t.turns),
		ByOutcome: make(map[Outcome]int),
		Uptime:    t.now().Sub(t.startTime),
	}

	var evalTokens int
	var evalTime time.Duration
	models := make(map[string]bool)

	for _, r := range t.turns {
		s.ByOutcome[r.Outcome]++
		s.PromptTokens += r.PromptTokens
		s.CompletionTokens += r.CompletionTokens
		s.TotalDuration += r.Duration
		if r.Model != "" {
			models[r.Model] = true
		}
		if r.Outcome != OutcomeOK {
			continue
		}
		if r.Duration > s.Slowest {
			s.Slowest = r.Duration
		}
		if r.EvalDuration > 0 {
			evalTokens += r.CompletionTokens
			evalTime += r.EvalDuration
		}
	}

	if evalTime > 0 {
		s.AvgTokensPerSecond = float64(evalTokens) / evalTime.Seconds()
	}
	for m := range models {
		s.Models = append(s.Models, m)
	}
	sort.Strings(s.Models)
	return s
}

// String renders the summary as a short multi-line report.
func (s Summary) String() string {
	return fmt.Sprintf(
		"Turns: %d (ok %d, empty %d, failed %d)\nTokens: %d prompt, %d completion\nAverage speed: %.1f tok/s\nUptime: %s",
		s.Turns, s.ByOutcome[OutcomeOK], s.ByOutcome[OutcomeEmpty],
		s.ByOutcome[OutcomeError]+s.ByOutcome[OutcomeCancelled],
		s.PromptTokens, s.CompletionTokens,
		s.AvgTokensPerSecond,
		s.Uptime.Round(time.Second),
	)
}
