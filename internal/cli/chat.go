// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The chat session started by the root command.
//
// The session runs two goroutines under one errgroup: the front end (the
// Bubble Tea program or the plain REPL) and the config file watcher. When
// the front end returns, the group context is cancelled and the watcher
// stops.
//
// Interactive Commands (during chat):
//   /help               Show available commands
//   /clear              Clear conversation history (also Ctrl+L)
//   /models             List local models
//   /model [name]       Show or switch model
//   /stats              Show session statistics
//   /export [md|json] [dir]  Save the chat to a file
//   /quit               Exit (also Esc / Ctrl+C in the terminal UI)
//
// Tab completes command names, model names and export arguments.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/reasonchat/internal/config"
	"github.com/jeranaias/reasonchat/internal/logging"
	"github.com/jeranaias/reasonchat/internal/telemetry"
	"github.com/jeranaias/reasonchat/internal/turn"
	"github.com/jeranaias/reasonchat/internal/ui/chat"
	"github.com/jeranaias/reasonchat/internal/ui/plain"
	"github.com/jeranaias/reasonchat/internal/ui/styles"
)

// =============================================================================
// SESSION SETUP
// =============================================================================

// session is everything a front end needs.
type session struct {
	opts       *Options
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	runner     *turn.Runner
	tracker    *telemetry.Tracker
}

func newSession(opts *Options) (*session, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, &CommandError{Code: ExitConfigError, Err: err}
	}

	tracker := telemetry.NewTracker()
	runner := turn.NewRunner(
		turn.ClientFromConfig(cfg),
		turn.SettingsFromConfig(cfg),
		turn.WithLogger(logger),
		turn.WithTracker(tracker),
	)

	logger.Info("Session started",
		zap.String("version", Version),
		zap.String("model", cfg.Local.Model),
		zap.String("ollama_url", cfg.Local.OllamaURL),
		zap.String("config", path),
		zap.String("unterminated", cfg.Dispatch.Unterminated))

	return &session{
		opts:       opts,
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		runner:     runner,
		tracker:    tracker,
	}, nil
}

// newLogger opens the debug log named by the config, defaulting to
// ~/.reasonchat/debug.log. Without a home directory logging is disabled.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	path := cfg.Log.Path
	if path == "" {
		def, err := config.DefaultLogPath()
		if err != nil {
			return zap.NewNop(), nil
		}
		path = def
	}
	return logging.New(logging.Options{Level: cfg.Log.Level, Path: path})
}

// reloaded re-applies the flags to a config read by the watcher. It returns
// nil when the flags make the reloaded config invalid.
func (s *session) reloaded(cfg *config.Config) *config.Config {
	if err := applyFlags(cfg, s.opts); err != nil {
		s.logger.Warn("Reloaded config rejected", zap.Error(err))
		return nil
	}
	config.SetGlobal(cfg)
	s.logger.Info("Config reloaded", zap.String("path", s.configPath))
	return cfg
}

// watch runs the config watcher until ctx is done. Without a config file
// there is nothing to watch.
func (s *session) watch(ctx context.Context, onChange func(*config.Config), onError func(error)) error {
	if s.configPath == "" {
		return nil
	}
	err := config.Watch(ctx, s.configPath, func(cfg *config.Config) {
		if cfg = s.reloaded(cfg); cfg != nil {
			onChange(cfg)
		}
	}, onError)
	if err != nil {
		// A watcher failure must not end the chat.
		s.logger.Warn("Config watcher stopped", zap.Error(err))
	}
	return nil
}

// =============================================================================
// FRONT ENDS
// =============================================================================

func runChat(ctx context.Context, opts *Options, in io.Reader, out io.Writer) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	if useTUI(opts, in, out) {
		err = s.runTUI(ctx)
	} else {
		err = s.runPlain(ctx, in, out)
	}

	s.logger.Info("Session ended", zap.Int("turns", len(s.tracker.Turns())), zap.Error(err))
	return err
}

func (s *session) runTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &chat.ProgramRef{}
	client := turn.ClientFromConfig(s.cfg)
	s.runner.SetClient(client)

	m := chat.New(chat.Options{
		Config:  s.cfg,
		Runner:  s.runner,
		Client:  client,
		Sender:  ref,
		Theme:   styles.NewTheme(s.cfg.UI.Theme),
		Logger:  s.logger,
		Context: ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	ref.Set(p)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("terminal UI: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.watch(gctx,
			func(cfg *config.Config) { ref.Send(chat.ConfigReloadedMsg{Config: cfg}) },
			func(err error) { ref.Send(chat.ConfigErrorMsg{Error: err}) })
	})
	return g.Wait()
}

func (s *session) runPlain(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var input plain.LineReader
	if f, ok := in.(*os.File); ok {
		input = plain.NewLineReader(f)
	} else {
		input = plain.NewScannerReader(in)
	}

	client := turn.ClientFromConfig(s.cfg)
	s.runner.SetClient(client)
	w := plain.NewWriter(out, isTerminal(out))
	repl := plain.NewREPL(s.runner, client, input, w, s.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return repl.Run(gctx)
	})
	g.Go(func() error {
		return s.watch(gctx, func(cfg *config.Config) {
			s.runner.SetSettings(turn.SettingsFromConfig(cfg))
			s.runner.SetClient(turn.ClientFromConfig(cfg))
		}, func(err error) {
			s.logger.Warn("Config reload failed", zap.Error(err))
		})
	})
	return g.Wait()
}
