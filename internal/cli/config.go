// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for reasonchat.
//
// Command: config [subcommand]
// Short:   Inspect and create the configuration file
//
// Subcommands:
//   show (default)      Print the effective configuration as TOML
//   init [--force]      Write a default config file
//   path                Show the configuration file path
package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/reasonchat/internal/config"
)

func newConfigCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, opts)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, opts, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	path := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := configPath(opts)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, path)
	return cmd
}

func configPath(opts *Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	p, err := config.ConfigPathTOML()
	if err != nil {
		return "", &CommandError{Code: ExitConfigError, Err: err}
	}
	return p, nil
}

func runConfigShow(cmd *cobra.Command, opts *Options) error {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func runConfigInit(cmd *cobra.Command, opts *Options, force bool) error {
	path, err := configPath(opts)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil && !force {
		return &CommandError{
			Code: ExitUsageError,
			Err:  fmt.Errorf("%s already exists (use --force to overwrite)", path),
		}
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return &CommandError{Code: ExitConfigError, Err: err}
	}
	writeLine(cmd.OutOrStdout(), "Wrote "+path)
	return nil
}
