// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/conversation"
	"github.com/jeranaias/reasonchat/internal/logging"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/telemetry"
	"github.com/jeranaias/reasonchat/internal/util"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	// BannerStart is shown when a session begins.
	BannerStart = "Qwen2 Advanced Reasoning Chat initiated. Embark on a journey of profound intellectual exploration!"
	// BannerCleared is shown after the chat is cleared.
	BannerCleared = "Chat cleared. Initiate a new intellectual discourse with Qwen2!"
	// EmptyResponseMessage is shown when a stream completes without text.
	EmptyResponseMessage = "(No response received. The model might still be loading or processing.)"
)

var (
	// ErrBusy is returned when a turn is requested while another is running.
	ErrBusy = errors.New("a response is still streaming")
	// ErrEmptyInput is returned for blank user input.
	ErrEmptyInput = errors.New("empty message")
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the per-turn knobs. They are snapshotted when a turn starts,
// so a config reload affects the next turn only.
type Settings struct {
	Model        string
	SystemPrompt string
	AssistantCue string
	Policy       section.UnterminatedPolicy
}

// ClientFromConfig builds an Ollama client from the [local] section.
func ClientFromConfig(cfg *config.Config) *ollama.Client {
	var opts *ollama.Options
	if cfg.Local.Temperature != 0 || cfg.Local.NumCtx != 0 {
		opts = &ollama.Options{Temperature: cfg.Local.Temperature, NumCtx: cfg.Local.NumCtx}
	}
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Local.OllamaURL,
		Timeout:      cfg.Timeout(),
		DefaultModel: cfg.Local.Model,
		Options:      opts,
	})
}

// SettingsFromConfig extracts turn settings from a loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Model:        cfg.Local.Model,
		SystemPrompt: cfg.Prompt.System,
		AssistantCue: cfg.Prompt.AssistantCue,
		Policy:       cfg.UnterminatedPolicy(),
	}
}

// =============================================================================
// RUNNER
// =============================================================================

// Streamer opens a streaming generate call. *ollama.Client implements it.
type Streamer interface {
	GenerateChan(ctx context.Context, model, prompt string) <-chan ollama.StreamChunk
}

// Runner drives chat turns: it owns the conversation, builds the prompt,
// streams the reply through a section dispatcher and reports to a Surface.
//
// At most one turn runs at a time. The conversation is only modified by Run
// and Reset, and Reset is refused while a turn is in flight.
type Runner struct {
	conv    *conversation.Conversation
	logger  *zap.Logger
	tracker *telemetry.Tracker

	mu       sync.RWMutex
	client   Streamer
	settings Settings

	busy atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = logging.OrNop(l) }
}

// WithTracker records each finished turn in t.
func WithTracker(t *telemetry.Tracker) Option {
	return func(r *Runner) { r.tracker = t }
}

// WithConversation uses an existing conversation instead of a fresh one.
func WithConversation(c *conversation.Conversation) Option {
	return func(r *Runner) { r.conv = c }
}

// NewRunner creates a runner for client using settings.
func NewRunner(client Streamer, settings Settings, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		conv:     conversation.New(),
		logger:   zap.NewNop(),
		tracker:  telemetry.NewTracker(),
		settings: settings,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns the current settings.
func (r *Runner) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// SetSettings replaces the settings used by subsequent turns.
func (r *Runner) SetSettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = s
}

// SetClient replaces the streaming client used by subsequent turns.
func (r *Runner) SetClient(c Streamer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = c
}

// SetModel switches the model used by subsequent turns.
func (r *Runner) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.Model = model
}

// Conversation returns the conversation log.
func (r *Runner) Conversation() *conversation.Conversation {
	return r.conv
}

// Tracker returns the session statistics.
func (r *Runner) Tracker() *telemetry.Tracker {
	return r.tracker
}

// Busy reports whether a turn is in flight.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Reset clears the conversation. It fails with ErrBusy during a turn.
func (r *Runner) Reset() error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.busy.Store(false)

	r.conv.Reset()
	r.logger.Info("Conversation cleared")
	return nil
}

// BuildPrompt renders the conversation followed by the assistant cue.
func (r *Runner) BuildPrompt() string {
	return buildPrompt(r.conv, r.Settings().AssistantCue)
}

func buildPrompt(conv *conversation.Conversation, cue string) string {
	prompt := conv.Format()
	if cue == "" {
		return prompt
	}
	if prompt == "" {
		return cue
	}
	return prompt + "\n" + cue
}

// =============================================================================
// TURN EXECUTION
// =============================================================================

// Result describes a finished turn.
type Result struct {
	Record telemetry.TurnRecord
	// Content is the full assembled reply, section markers included.
	Content string
	// Err is the failure that aborted the turn, already shown on the surface.
	Err error
}

// Run performs one turn for input, blocking until the stream ends.
//
// The returned error is only ErrBusy or ErrEmptyInput, in which case nothing
// happened. Failures during the turn are reported on the surface as a single
// error line and returned in Result.Err.
func (r *Runner) Run(ctx context.Context, input string, s Surface) (Result, error) {
	text := norm.NFC.String(strings.TrimSpace(input))
	if text == "" {
		return Result{}, ErrEmptyInput
	}
	if !r.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer r.busy.Store(false)

	r.mu.RLock()
	settings, client := r.settings, r.client
	r.mu.RUnlock()

	rec := telemetry.TurnRecord{
		ID:        uuid.NewString(),
		Model:     settings.Model,
		StartTime: time.Now(),
	}
	log := r.logger.With(zap.String("turn_id", rec.ID), zap.String("model", settings.Model))

	if r.conv.EnsureSystem(settings.SystemPrompt) {
		log.Debug("System prompt added")
	}
	if err := r.conv.Append(conversation.RoleUser, text); err != nil {
		return Result{}, fmt.Errorf("append user message: %w", err)
	}
	s.AppendTranscript("You: "+text, section.StyleUser)

	prompt := buildPrompt(r.conv, settings.AssistantCue)
	log.Info("Turn started",
		zap.String("input", util.Preview(text, 80)),
		zap.Int("messages", r.conv.Len()),
		zap.Int("prompt_bytes", len(prompt)))

	content, err := stream(ctx, client, settings, prompt, s, &rec)
	rec.Duration = time.Since(rec.StartTime)

	res := Result{Content: content, Err: err}
	switch {
	case err != nil && ctx.Err() != nil:
		rec.Outcome = telemetry.OutcomeCancelled
		log.Warn("Turn cancelled", zap.Error(err))
	case err != nil:
		rec.Outcome = telemetry.OutcomeError
		s.AppendTranscript(ErrorLine(err, settings.Model), section.StyleError)
		log.Error("Turn failed", zap.Error(err), zap.Int("chunks", rec.Chunks))
	case content == "":
		rec.Outcome = telemetry.OutcomeEmpty
		s.AppendTranscript(EmptyResponseMessage, section.StyleInfo)
		log.Warn("Empty response received")
	default:
		rec.Outcome = telemetry.OutcomeOK
		if appendErr := r.conv.Append(conversation.RoleAssistant, content); appendErr != nil {
			log.Error("Failed to record reply", zap.Error(appendErr))
		}
		log.Info("Turn finished",
			zap.Int("chunks", rec.Chunks),
			zap.Int("sections", rec.Sections),
			zap.Int("completion_tokens", rec.CompletionTokens),
			zap.Duration("duration", rec.Duration))
	}

	res.Record = rec
	r.tracker.Record(rec)
	return res, nil
}

// stream runs the generate call and dispatches every fragment. It returns
// the concatenation of all fragments received.
func stream(ctx context.Context, client Streamer, settings Settings, prompt string, s Surface, rec *telemetry.TurnRecord) (string, error) {
	d := section.NewDispatcher(section.WithUnterminatedPolicy(settings.Policy))
	var full strings.Builder
	var panel PanelHandle
	var streamErr error

	for chunk := range client.GenerateChan(ctx, settings.Model, prompt) {
		if chunk.Error != nil {
			streamErr = chunk.Error
			continue
		}
		rec.Chunks++
		full.WriteString(chunk.Content)
		rec.Sections += apply(s, d.Dispatch(chunk.Content), &panel)

		if chunk.Done {
			rec.PromptTokens = chunk.PromptTokens
			rec.CompletionTokens = chunk.CompletionTokens
			rec.EvalDuration = chunk.EvalDuration
		}
	}

	if streamErr == nil && ctx.Err() != nil {
		streamErr = ctx.Err()
	}
	if streamErr != nil {
		return full.String(), streamErr
	}

	apply(s, d.Finish(), &panel)
	return full.String(), nil
}

// =============================================================================
// ERROR PRESENTATION
// =============================================================================

// ErrorLine turns a turn failure into the one line shown to the user.
func ErrorLine(err error, model string) string {
	switch {
	case ollama.IsNotRunning(err):
		return "Error: cannot reach Ollama. Start it with 'ollama serve' and try again."
	case ollama.IsTimeout(err):
		return "Error: the request timed out waiting for the model."
	case ollama.IsModelNotFound(err):
		return fmt.Sprintf("Error: model %q not found. Pull it with 'ollama pull %s'.", model, model)
	case ollama.IsDecode(err):
		return "Error: malformed response from Ollama: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
