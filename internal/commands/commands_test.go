// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_GetByAlias(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.Get("/exit"))
	assert.Equal(t, Quit, r.Get("/exit").Name)
	assert.Equal(t, Help, r.Get("/HELP").Name)
	assert.Nil(t, r.Get("/nope"))
}

func TestRegistry_Help(t *testing.T) {
	help := NewRegistry().Help()
	for _, cmd := range NewRegistry().All() {
		assert.Contains(t, help, cmd.Name)
	}
	assert.Contains(t, help, "/export [md|json] [dir]")
	assert.Contains(t, help, "/model [name]")
}

// =============================================================================
// PARSER
// =============================================================================

func TestParse(t *testing.T) {
	r := NewRegistry()

	res := r.Parse("  /MODEL llama3 ")
	assert.True(t, res.IsCommand)
	assert.Equal(t, "/model", res.Name)
	assert.Equal(t, []string{"llama3"}, res.Args)
	require.NotNil(t, res.Command)
	assert.Equal(t, Model, res.Command.Name)

	res = r.Parse(`/export md "my notes"`)
	assert.Equal(t, []string{"md", "my notes"}, res.Args)
	assert.Equal(t, "my notes", res.Arg(1))
	assert.Equal(t, "", res.Arg(2))

	assert.False(t, r.Parse("hello /model").IsCommand)
}

func TestParseResult_Validate(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		input   string
		wantErr string
	}{
		{"/help", ""},
		{"/model", ""},
		{"/model a b", "usage: /model [name]"},
		{"/export json /tmp", ""},
		{"/export JSON", ""},
		{"/export pdf", `invalid format "pdf"`},
		{"/frobnicate", "unknown command: /frobnicate"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			err := r.Parse(tc.input).Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
	assert.ErrorIs(t, r.Parse("/x").Validate(), ErrUnknownCommand)
}

func TestSplitCommandLine(t *testing.T) {
	assert.Equal(t, []string{"/a", "b c", "d"}, splitCommandLine(`/a "b c" d`))
	assert.Equal(t, []string{"/a", `it's`}, splitCommandLine(`/a 'it\'s'`))
	assert.Equal(t, []string{"/a", ""}, splitCommandLine(`/a ""`))
	assert.Empty(t, splitCommandLine("   "))
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestComplete_CommandNames(t *testing.T) {
	c := NewCompleter(NewRegistry())
	assert.Equal(t, []string{"/model", "/models"}, c.Lines("/mo"))
	assert.Equal(t, []string{"/quit"}, c.Lines("/q"))
	assert.Nil(t, c.Lines("hello"))
}

func TestComplete_Arguments(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.ModelsFn = func() []string { return []string{"qwen2", "qwen2.5", "llama3"} }

	assert.Equal(t, []string{"/model qwen2", "/model qwen2.5"}, c.Lines("/model qw"))
	assert.Len(t, c.Lines("/model "), 3)
	assert.Equal(t, []string{"/export json"}, c.Lines("/export j"))
	assert.Nil(t, c.Lines("/stats x"))
	assert.Nil(t, c.Lines("/unknown "))
}

func TestComplete_Dirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "notes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), nil, 0644))

	c := NewCompleter(NewRegistry())
	partial := filepath.Join(dir, "no")
	got := c.Lines("/export md " + partial)
	assert.Equal(t, []string{"/export md " + filepath.Join(dir, "notes") + string(filepath.Separator)}, got)
}

func TestSuggestions(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.ModelsFn = func() []string { return []string{"qwen2"} }

	got := c.Suggestions()
	assert.Contains(t, got, "/help")
	assert.Contains(t, got, "/model qwen2")
	assert.Contains(t, got, "/export md")
	assert.Contains(t, got, "/export json")
}
