// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jeranaias/reasonchat/internal/commands"
	"github.com/jeranaias/reasonchat/internal/export"
	"github.com/jeranaias/reasonchat/internal/logging"
	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/telemetry"
	"github.com/jeranaias/reasonchat/internal/turn"
)

// promptText is shown before each input line.
const promptText = "You> "

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of user input per call. It returns io.EOF when
// input ends and liner.ErrPromptAborted when the user presses Ctrl+C at the
// prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// NewLineReader returns a liner prompt with in-session history when stdin
// is a terminal, and a buffered reader otherwise.
func NewLineReader(in *os.File) LineReader {
	if term.IsTerminal(int(in.Fd())) {
		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		return line
	}
	return NewScannerReader(in)
}

// scannerReader reads lines from a non-interactive stream.
type scannerReader struct {
	r *bufio.Reader
}

// NewScannerReader creates a LineReader over r that never echoes a prompt.
func NewScannerReader(r io.Reader) LineReader {
	return &scannerReader{r: bufio.NewReader(r)}
}

func (s *scannerReader) Prompt(string) (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *scannerReader) AppendHistory(string) {}

func (s *scannerReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// ModelLister lists local models. *ollama.Client implements it.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// REPL is the line-oriented chat used with --plain or when stdout is not a
// terminal.
type REPL struct {
	runner *turn.Runner
	models ModelLister
	input  LineReader
	out    *Writer
	logger *zap.Logger

	registry  *commands.Registry
	completer *commands.Completer
	// modelNames holds the last successful listing for completion.
	modelNames []string

	// interrupt turns Ctrl+C into cancellation of the running turn.
	interrupt bool
}

// NewREPL creates a REPL. models may be nil.
func NewREPL(runner *turn.Runner, models ModelLister, input LineReader, out *Writer, logger *zap.Logger) *REPL {
	r := &REPL{
		runner:    runner,
		models:    models,
		input:     input,
		out:       out,
		logger:    logging.OrNop(logger),
		registry:  commands.NewRegistry(),
		interrupt: true,
	}
	r.completer = commands.NewCompleter(r.registry)
	r.completer.ModelsFn = func() []string { return r.modelNames }
	return r
}

// completable is implemented by line editors that offer tab completion.
type completable interface {
	SetCompleter(f liner.Completer)
}

// Run reads lines until input ends, /quit, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	defer r.input.Close()
	if c, ok := r.input.(completable); ok {
		c.SetCompleter(r.completer.Lines)
		r.refreshModels(ctx)
	}
	r.out.Info(turn.BannerStart)

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.input.Prompt(promptText)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				r.out.EndTurn()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		r.input.AppendHistory(text)

		if strings.HasPrefix(text, "/") {
			if quit := r.command(ctx, text); quit {
				return nil
			}
			continue
		}
		r.turn(ctx, text)
	}
}

func (r *REPL) turn(ctx context.Context, text string) {
	turnCtx := ctx
	if r.interrupt {
		var stop context.CancelFunc
		turnCtx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	res, err := r.runner.Run(turnCtx, text, r.out)
	r.out.EndTurn()
	if err != nil {
		r.out.Error("Error: " + err.Error())
		return
	}
	if res.Record.Outcome == telemetry.OutcomeCancelled {
		r.out.Info("[Cancelled]")
	}
}

// command handles a slash command and reports whether the REPL should exit.
func (r *REPL) command(ctx context.Context, text string) bool {
	res := r.registry.Parse(text)
	if err := res.Validate(); err != nil {
		r.out.Error("Error: " + err.Error())
		return false
	}

	switch res.Command.Name {
	case commands.Quit:
		return true

	case commands.Help:
		r.out.Info(r.registry.Help())

	case commands.Clear:
		if err := r.runner.Reset(); err != nil {
			r.out.Error("Error: " + err.Error())
			return false
		}
		r.out.Info(turn.BannerCleared)
		r.logger.Info("Chat cleared")

	case commands.Model:
		name := res.Arg(0)
		if name == "" {
			r.out.Info("Current model: " + r.runner.Settings().Model)
			return false
		}
		r.runner.SetModel(name)
		r.out.Info("Model set to " + name + ".")
		r.logger.Info("Model switched", zap.String("model", name))

	case commands.Models:
		r.listModels(ctx)

	case commands.Stats:
		r.out.Info(r.runner.Tracker().Summary().String())

	case commands.Export:
		s := export.NewSession(r.runner.Settings().Model, r.runner.Conversation().Messages(), r.runner.Tracker().Turns())
		path, err := export.FromArgs(s, res.Args, nil)
		if err != nil {
			r.out.Error("Error: " + err.Error())
			return false
		}
		r.out.Info("Exported to " + path)
		r.logger.Info("Chat exported", zap.String("path", path))
	}
	return false
}

// fetchModels lists the local models and remembers their names for
// completion.
func (r *REPL) fetchModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	models, err := r.models.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	r.modelNames = r.modelNames[:0]
	for _, mi := range models {
		r.modelNames = append(r.modelNames, mi.Name)
	}
	return models, nil
}

// refreshModels fills the completion list quietly.
func (r *REPL) refreshModels(ctx context.Context) {
	if r.models == nil {
		return
	}
	if _, err := r.fetchModels(ctx); err != nil {
		r.logger.Debug("Model listing for completion failed", zap.Error(err))
	}
}

func (r *REPL) listModels(ctx context.Context) {
	if r.models == nil {
		r.out.Error("Error: no Ollama client configured.")
		return
	}

	models, err := r.fetchModels(ctx)
	if err != nil {
		r.out.Error(turn.ErrorLine(err, r.runner.Settings().Model))
		return
	}
	if len(models) == 0 {
		r.out.Info("No local models. Pull one with 'ollama pull qwen2'.")
		return
	}

	current := r.runner.Settings().Model
	var b strings.Builder
	b.WriteString("Local models:")
	for _, mi := range models {
		marker := "  "
		if mi.Name == current {
			marker = "* "
		}
		fmt.Fprintf(&b, "\n%s%s (%s)", marker, mi.Name, mi.FormatSize())
	}
	r.out.Info(b.String())
}
