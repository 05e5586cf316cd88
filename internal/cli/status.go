// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Models command implementation for reasonchat.
//
// Command: models
// Short:   List local Ollama models
//
// Output Fields:
//   NAME       Model tag
//   SIZE       Size on disk
//   PARAMS     Parameter count reported by Ollama
//   MODIFIED   Last modification date
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/reasonchat/internal/ollama"
	"github.com/jeranaias/reasonchat/internal/turn"
	"github.com/jeranaias/reasonchat/internal/util"
)

const modelsTimeout = 10 * time.Second

func newModelsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List local Ollama models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), modelsTimeout)
			defer cancel()

			models, err := turn.ClientFromConfig(cfg).ListModels(ctx)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), models, cfg.Local.Model)
			return nil
		},
	}
}

// printModels writes a fixed-width table; the configured model is starred.
func printModels(w io.Writer, models []ollama.ModelInfo, current string) {
	if len(models) == 0 {
		writeLine(w, "No local models. Pull one with 'ollama pull qwen2'.")
		return
	}
	writeLine(w, "  "+util.PadRight("NAME", 32)+util.PadRight("SIZE", 10)+util.PadRight("PARAMS", 8)+"MODIFIED")
	for _, m := range models {
		marker := "  "
		if m.Name == current {
			marker = "* "
		}
		modified := ""
		if !m.ModifiedAt.IsZero() {
			modified = m.ModifiedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s%s%s%s%s\n",
			marker,
			util.PadRight(m.Name, 32),
			util.PadRight(m.FormatSize(), 10),
			util.PadRight(m.Details.ParameterSize, 8),
			modified)
	}
}
