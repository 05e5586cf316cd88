// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/reasonchat/internal/commands"
	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/logging"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/turn"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// healthTimeout bounds the startup probe and the /models request.
const healthTimeout = 5 * time.Second

// redrawInterval caps how often streamed text re-renders the transcript.
const redrawInterval = 50 * time.Millisecond

// OllamaAPI is the non-streaming part of the Ollama client the UI uses.
type OllamaAPI interface {
	CheckRunning(ctx context.Context) error
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Options configures a chat Model.
type Options struct {
	Config *config.Config
	Runner *turn.Runner
	Client OllamaAPI
	// Sender receives surface messages from the turn goroutine. Usually a
	// *ProgramRef set to the running program.
	Sender  Sender
	Theme   *styles.Theme
	Logger  *zap.Logger
	Context context.Context
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	cfg     *config.Config
	runner  *turn.Runner
	api     OllamaAPI
	surface *ProgramSurface
	theme   *styles.Theme
	logger  *zap.Logger
	keys    KeyMap

	registry  *commands.Registry
	completer *commands.Completer
	// models holds the names from the last successful model listing.
	models []string

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	transcript *Transcript
	panel      *livePanel
	markdown   *glamour.TermRenderer

	// redraw throttles re-rendering while fragments stream in; dirty marks
	// text appended since the last render.
	redraw *rate.Limiter
	dirty  bool

	ctx        context.Context
	turnCancel context.CancelFunc
	busy       bool

	width  int
	height int
	ready  bool

	ollamaUp  bool
	lastSpeed float64
	statusErr string
}

// New creates the chat model and shows the start banner.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = "Enter your message... (/help for commands)"
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.ShowSuggestions = true
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		cfg:        cfg,
		runner:     opts.Runner,
		api:        opts.Client,
		surface:    NewProgramSurface(opts.Sender),
		theme:      theme,
		logger:     logging.OrNop(opts.Logger),
		keys:       DefaultKeyMap(),
		input:      input,
		spinner:    sp,
		transcript: NewTranscript(),
		ctx:        ctx,
		registry:   commands.NewRegistry(),
		redraw:     rate.NewLimiter(rate.Every(redrawInterval), 1),
	}
	m.completer = commands.NewCompleter(m.registry)
	m.completer.ModelsFn = func() []string { return m.models }
	m.input.SetSuggestions(m.completer.Suggestions())
	m.transcript.Append(turn.BannerStart, section.StyleInfo)
	return m
}

// Init starts the cursor blink, the Ollama health probe and a quiet model
// listing for completion.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.checkOllama(), m.listModels(true))
}

// Transcript exposes the transcript for inspection.
func (m *Model) Transcript() *Transcript {
	return m.transcript
}

// Busy reports whether a turn is streaming.
func (m *Model) Busy() bool {
	return m.busy
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TranscriptMsg:
		m.transcript.Append(msg.Text, msg.Style)
		if m.redraw.Allow() {
			m.refresh()
		} else {
			m.dirty = true
		}
		return m, nil

	case PanelOpenMsg:
		m.panel = newLivePanel(msg.Handle, msg.Title)
		m.layout()
		return m, nil

	case PanelAppendMsg:
		if m.panel != nil && m.panel.handle == msg.Handle {
			m.panel.content.WriteString(msg.Text)
		}
		return m, nil

	case PanelCloseMsg:
		if m.panel != nil && m.panel.handle == msg.Handle {
			m.panel = nil
			m.layout()
		}
		return m, nil

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case spinner.TickMsg:
		if m.dirty {
			m.refresh()
		}
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case OllamaStatusMsg:
		m.ollamaUp = msg.Running
		if !msg.Running {
			m.statusErr = "ollama offline"
			m.info(fmt.Sprintf("Ollama is not reachable at %s. Start it with 'ollama serve'.", m.cfg.Local.OllamaURL))
			m.logger.Warn("Ollama health check failed", zap.Error(msg.Error))
		} else {
			m.statusErr = ""
		}
		return m, nil

	case OllamaModelsMsg:
		m.showModels(msg)
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, nil

	case ConfigErrorMsg:
		m.appendLine("Config reload failed: "+msg.Error.Error(), section.StyleError)
		m.logger.Warn("Config reload failed", zap.Error(msg.Error))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Clear):
		m.clear()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line. While a turn streams, Enter is ignored and
// the typed text stays in the input.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}
	return m, m.startTurn(text)
}

func (m *Model) startTurn(text string) tea.Cmd {
	if m.runner == nil {
		m.appendLine("Error: no model runner configured.", section.StyleError)
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.turnCancel = cancel
	m.busy = true

	runner, surface := m.runner, m.surface
	run := func() tea.Msg {
		defer cancel()
		res, err := runner.Run(ctx, text, surface)
		return TurnDoneMsg{Result: res, Err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) handleTurnDone(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.turnCancel = nil
	m.transcript.EndStream()
	// A failed turn never closes its section, so its panel goes with it.
	m.panel = nil

	switch {
	case errors.Is(msg.Err, turn.ErrBusy):
		m.info("A response is still streaming. Wait for it to finish.")
	case msg.Err != nil:
		m.appendLine("Error: "+msg.Err.Error(), section.StyleError)
	default:
		if tps := msg.Result.Record.TokensPerSecond(); tps > 0 {
			m.lastSpeed = tps
		}
	}

	m.layout()
	return m, nil
}

// clear resets the transcript and conversation. It is refused while a turn
// streams.
func (m *Model) clear() {
	if m.busy {
		m.info("Cannot clear while a response is streaming.")
		return
	}
	if m.runner != nil {
		if err := m.runner.Reset(); err != nil {
			m.appendLine("Error: "+err.Error(), section.StyleError)
			return
		}
	}
	m.transcript.Reset()
	m.panel = nil
	m.transcript.Append(turn.BannerCleared, section.StyleInfo)
	m.layout()
	m.logger.Info("Chat cleared")
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.turnCancel != nil {
		m.turnCancel()
	}
	return m, tea.Quit
}

// =============================================================================
// OLLAMA COMMANDS
// =============================================================================

func (m *Model) checkOllama() tea.Cmd {
	api, ctx := m.api, m.ctx
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		err := api.CheckRunning(ctx)
		return OllamaStatusMsg{Running: err == nil, Error: err}
	}
}

// listModels fetches the local models. A quiet listing only refreshes
// completion.
func (m *Model) listModels(quiet bool) tea.Cmd {
	api, ctx := m.api, m.ctx
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		models, err := api.ListModels(ctx)
		return OllamaModelsMsg{Models: models, Error: err, Quiet: quiet}
	}
}

func (m *Model) showModels(msg OllamaModelsMsg) {
	if msg.Error == nil {
		m.models = m.models[:0]
		for _, mi := range msg.Models {
			m.models = append(m.models, mi.Name)
		}
		m.input.SetSuggestions(m.completer.Suggestions())
	}
	if msg.Quiet {
		return
	}
	if msg.Error != nil {
		m.appendLine(turn.ErrorLine(msg.Error, m.currentModel()), section.StyleError)
		return
	}
	if len(msg.Models) == 0 {
		m.info("No local models. Pull one with 'ollama pull qwen2'.")
		return
	}

	current := m.currentModel()
	var b strings.Builder
	b.WriteString("Local models:")
	for _, mi := range msg.Models {
		marker := "  "
		if mi.Name == current {
			marker = "* "
		}
		fmt.Fprintf(&b, "\n%s%s (%s)", marker, mi.Name, mi.FormatSize())
	}
	m.info(b.String())
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

// applyConfig takes a reloaded config into use. Settings apply from the
// next turn; a turn already streaming keeps its snapshot.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	old := m.cfg
	m.cfg = cfg

	if m.runner != nil {
		m.runner.SetSettings(turn.SettingsFromConfig(cfg))
		if old.Local.OllamaURL != cfg.Local.OllamaURL ||
			old.Local.TimeoutSecs != cfg.Local.TimeoutSecs ||
			old.Local.Temperature != cfg.Local.Temperature ||
			old.Local.NumCtx != cfg.Local.NumCtx {
			client := turn.ClientFromConfig(cfg)
			m.runner.SetClient(client)
			m.api = client
		}
	}

	if old.UI.Theme != cfg.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		m.input.PromptStyle = m.theme.InputPrompt
		m.input.PlaceholderStyle = m.theme.InputPlaceholder
		m.spinner.Style = m.theme.Spinner
	}
	m.markdown = nil
	if cfg.UI.RenderMarkdown {
		m.markdown = m.newMarkdownRenderer()
	}
	m.transcript.ResetRenderCache()

	m.info("Configuration reloaded.")
	m.logger.Info("Config reloaded", zap.String("model", cfg.Local.Model))
}

func (m *Model) currentModel() string {
	if m.runner != nil {
		return m.runner.Settings().Model
	}
	return m.cfg.Local.Model
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)
	m.input.Width = width - 6

	if !m.ready {
		m.viewport = viewport.New(width, 1)
		m.ready = true
	}
	if m.cfg.UI.RenderMarkdown {
		m.markdown = m.newMarkdownRenderer()
	}
	m.layout()
}

// layout sizes the viewport around the panel, input and status bar.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	// input box (3 rows) + status bar
	reserved := 4
	if m.panel != nil {
		reserved += m.panel.height()
	}
	h := m.height - reserved
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.refresh()
}

// refresh re-renders the transcript into the viewport. The view follows
// new output only when it was already at the bottom.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.dirty = false
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.Render(m.theme, m.width, m.markdown))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) newMarkdownRenderer() *glamour.TermRenderer {
	style := "dark"
	if !m.theme.IsDark {
		style = "light"
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Warn("Markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return r
}

func (m *Model) info(text string) {
	m.appendLine(text, section.StyleInfo)
}

func (m *Model) appendLine(text string, style section.Style) {
	m.transcript.Append(text, style)
	m.refresh()
}
