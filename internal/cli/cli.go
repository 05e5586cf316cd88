// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and global flags for reasonchat.
//
// Command: reasonchat
// Short:   Chat with a local Ollama model, showing its reasoning live
//
// Examples:
//   reasonchat                        Start the chat (terminal UI)
//   reasonchat --model qwen2:7b       Use a specific model
//   reasonchat --plain                Line-oriented chat, no full-screen UI
//   reasonchat models                 List local models
//   reasonchat config init            Write a default config file
//
// Flags:
//   -m, --model NAME    Model to use (overrides config)
//   -u, --url URL       Ollama base URL (overrides config)
//   -c, --config PATH   Config file (default ~/.reasonchat/config.toml)
//   --plain             Use the line-oriented chat
//   --debug             Log at debug level
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/reasonchat/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Options holds the global flags.
type Options struct {
	Model      string
	URL        string
	ConfigPath string
	Plain      bool
	Debug      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "reasonchat",
		Short: "Chat with a local Ollama model, showing its reasoning live",
		Long: `reasonchat streams replies from a local Ollama model. Text the model
wraps in <thinking> or <analyzing> tags is shown in a live panel while it
streams and then added to the transcript as a labeled block.

Examples:
  reasonchat                        # terminal UI
  reasonchat --model qwen2:7b
  reasonchat --plain                # line-oriented chat
  reasonchat models                 # list local models
  reasonchat config init            # write ~/.reasonchat/config.toml`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.Model, "model", "m", "", "model to use (overrides config)")
	flags.StringVarP(&opts.URL, "url", "u", "", "Ollama base URL (overrides config)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.reasonchat/config.toml)")
	flags.BoolVar(&opts.Debug, "debug", false, "log at debug level")
	root.Flags().BoolVar(&opts.Plain, "plain", false, "use the line-oriented chat")

	root.AddCommand(
		newModelsCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		PrintError(os.Stderr, err)
		return ExitCodeFor(err)
	}
	return ExitSuccess
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reasonchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}

// loadConfig loads the config named by --config (or the default location)
// and applies the flag overrides. The returned path is the file to watch;
// it is empty when no file exists.
func loadConfig(opts *Options) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.ConfigPath != "" {
		path = opts.ConfigPath
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, "", &CommandError{Code: ExitConfigError, Err: err}
	}

	if err := applyFlags(cfg, opts); err != nil {
		return nil, "", err
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			path = ""
		}
	}
	return cfg, path, nil
}

// applyFlags overrides cfg with command-line values. It is applied again to
// every reloaded config so flags keep precedence.
func applyFlags(cfg *config.Config, opts *Options) error {
	if opts.Model != "" {
		cfg.Local.Model = opts.Model
	}
	if opts.URL != "" {
		cfg.Local.OllamaURL = opts.URL
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return &CommandError{Code: ExitUsageError, Err: fmt.Errorf("invalid flags: %w", err)}
	}
	return nil
}

// writeLine writes s and a newline, ignoring errors on closed outputs.
func writeLine(w io.Writer, s string) {
	_, _ = fmt.Fprintln(w, s)
}
