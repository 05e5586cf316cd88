// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/reasonchat/internal/commands"
	"github.com/jeranaias/reasonchat/internal/export"
	"github.com/jeranaias/reasonchat/internal/section"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

type commandHandler func(m *Model, cmd commands.ParseResult) tea.Cmd

var commandHandlers = map[string]commandHandler{
	commands.Help:   cmdHelp,
	commands.Clear:  cmdClear,
	commands.Models: cmdModels,
	commands.Model:  cmdModel,
	commands.Stats:  cmdStats,
	commands.Export: cmdExport,
	commands.Quit:   cmdQuit,
}

func (m *Model) runCommand(input string) (tea.Model, tea.Cmd) {
	res := m.registry.Parse(input)
	if err := res.Validate(); err != nil {
		m.appendLine("Error: "+err.Error(), section.StyleError)
		return m, nil
	}
	handler, ok := commandHandlers[res.Command.Name]
	if !ok {
		m.appendLine("Error: "+res.Command.Name+" is not available here.", section.StyleError)
		return m, nil
	}
	return m, handler(m, res)
}

func cmdHelp(m *Model, _ commands.ParseResult) tea.Cmd {
	var b strings.Builder
	b.WriteString(m.registry.Help())
	b.WriteString("\n\nKeys:")
	for _, group := range m.keys.FullHelp() {
		for _, kb := range group {
			h := kb.Help()
			fmt.Fprintf(&b, "\n  %-24s %s", h.Key, h.Desc)
		}
	}
	m.info(b.String())
	return nil
}

func cmdClear(m *Model, _ commands.ParseResult) tea.Cmd {
	m.clear()
	return nil
}

func cmdModels(m *Model, _ commands.ParseResult) tea.Cmd {
	if m.api == nil {
		m.appendLine("Error: no Ollama client configured.", section.StyleError)
		return nil
	}
	return m.listModels(false)
}

func cmdModel(m *Model, cmd commands.ParseResult) tea.Cmd {
	name := cmd.Arg(0)
	if name == "" {
		m.info("Current model: " + m.currentModel())
		return nil
	}
	if m.runner != nil {
		m.runner.SetModel(name)
	}
	m.cfg = m.cfg.Clone()
	m.cfg.Local.Model = name
	m.info("Model set to " + name + ".")
	m.logger.Info("Model switched", zap.String("model", name))
	return nil
}

func cmdStats(m *Model, _ commands.ParseResult) tea.Cmd {
	if m.runner == nil {
		m.info("No statistics yet.")
		return nil
	}
	m.info(m.runner.Tracker().Summary().String())
	return nil
}

func cmdExport(m *Model, cmd commands.ParseResult) tea.Cmd {
	if m.runner == nil {
		m.appendLine("Error: nothing to export.", section.StyleError)
		return nil
	}
	s := export.NewSession(m.currentModel(), m.runner.Conversation().Messages(), m.runner.Tracker().Turns())
	path, err := export.FromArgs(s, cmd.Args, nil)
	if err != nil {
		m.appendLine("Error: "+err.Error(), section.StyleError)
		return nil
	}
	m.info("Exported to " + path)
	m.logger.Info("Chat exported", zap.String("path", path))
	return nil
}

func cmdQuit(m *Model, _ commands.ParseResult) tea.Cmd {
	_, cmd := m.quit()
	return cmd
}
