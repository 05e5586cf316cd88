// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/reasonchat/internal/section"
	"github.com/jeranaias/reasonchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete reasonchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Local (Ollama) configuration
	Local LocalConfig `toml:"local" json:"local"`

	// Prompt construction
	Prompt PromptConfig `toml:"prompt" json:"prompt"`

	// Section dispatch behavior
	Dispatch DispatchConfig `toml:"dispatch" json:"dispatch"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Debug log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// LocalConfig contains local Ollama configuration.
type LocalConfig struct {
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`
	// Model is the model name sent with every generate request
	Model string `toml:"model" json:"model"`
	// TimeoutSecs bounds connecting and each silence in the stream
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Temperature is passed through as a model option when non-zero
	Temperature float64 `toml:"temperature" json:"temperature"`
	// NumCtx is passed through as a model option when non-zero
	NumCtx int `toml:"num_ctx" json:"num_ctx"`
}

// PromptConfig controls how the conversation becomes a prompt.
type PromptConfig struct {
	// System is the system message added lazily on the first turn
	System string `toml:"system" json:"system"`
	// AssistantCue is appended on its own line after the formatted
	// conversation to prompt the model's reply. Empty disables it.
	AssistantCue string `toml:"assistant_cue" json:"assistant_cue"`
}

// DispatchConfig controls the section dispatcher.
type DispatchConfig struct {
	// Unterminated is "leave" (section stays only in its panel when the
	// stream ends) or "flush" (it is flushed to the transcript)
	Unterminated string `toml:"unterminated" json:"unterminated"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme          string `toml:"theme" json:"theme"`
	RenderMarkdown bool   `toml:"render_markdown" json:"render_markdown"`
	ShowStats      bool   `toml:"show_stats" json:"show_stats"`
}

// LogConfig configures the debug log file.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Path of the log file; empty means ~/.reasonchat/debug.log
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Local: LocalConfig{
			OllamaURL:   "http://127.0.0.1:11434",
			Model:       "qwen2",
			TimeoutSecs: 60,
		},

		Prompt: PromptConfig{
			System:       DefaultSystemPrompt,
			AssistantCue: DefaultAssistantCue,
		},

		Dispatch: DispatchConfig{
			Unterminated: string(section.LeaveOpen),
		},

		UI: UIConfig{
			Theme: "dark",
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Local.OllamaURL == "" {
		cfg.Local.OllamaURL = defaults.Local.OllamaURL
	}
	if cfg.Local.Model == "" {
		cfg.Local.Model = defaults.Local.Model
	}
	if cfg.Local.TimeoutSecs == 0 {
		cfg.Local.TimeoutSecs = defaults.Local.TimeoutSecs
	}
	if cfg.Prompt.System == "" {
		cfg.Prompt.System = defaults.Prompt.System
	}
	if cfg.Dispatch.Unterminated == "" {
		cfg.Dispatch.Unterminated = defaults.Dispatch.Unterminated
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// FILE LOCATIONS
// =============================================================================

// ConfigDir is ~/.reasonchat.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no home directory: %w", err)
	}
	return filepath.Join(home, ".reasonchat"), nil
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML is ~/.reasonchat/config.toml.
func ConfigPathTOML() (string, error) { return inConfigDir("config.toml") }

// ConfigPathJSON is ~/.reasonchat/config.json.
func ConfigPathJSON() (string, error) { return inConfigDir("config.json") }

// DefaultLogPath is ~/.reasonchat/debug.log.
func DefaultLogPath() (string, error) { return inConfigDir("debug.log") }

// =============================================================================
// LOADING
// =============================================================================

// Load reads ~/.reasonchat/config.toml, or config.json when only that
// exists, and otherwise starts from Default. Environment overrides win over
// the file. The returned path names the file read, or the TOML path when
// there was none.
func Load() (*Config, string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		cfg, err := finish(Default())
		return cfg, "", err
	}

	candidates := []string{tomlPath}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		candidates = append(candidates, jsonPath)
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFromPath(path)
			return cfg, path, err
		}
	}

	cfg, err := finish(Default())
	return cfg, tomlPath, err
}

// LoadFromPath reads one config file. A .json suffix selects JSON, anything
// else is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	decode, kind := LoadTOML, "TOML"
	if strings.HasSuffix(path, ".json") {
		decode, kind = LoadJSON, "JSON"
	}
	if err := decode(cfg, path); err != nil {
		return nil, fmt.Errorf("load %s config %s: %w", kind, path, err)
	}
	return finish(cfg)
}

// finish applies the environment and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path into cfg. Keys the Config does not know are an
// error.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if extra := md.Undecoded(); len(extra) > 0 {
		names := make([]string, 0, len(extra))
		for _, k := range extra {
			names = append(names, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON decodes path into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// SaveTOML writes cfg to path atomically, creating parent directories.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# reasonchat configuration\n# Edits apply to running sessions.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - REASONCHAT_OLLAMA_URL: overrides local.ollama_url
//   - OLLAMA_HOST: used for local.ollama_url when REASONCHAT_OLLAMA_URL is unset
//   - REASONCHAT_MODEL: overrides local.model
//   - REASONCHAT_TIMEOUT: overrides local.timeout_secs
//   - REASONCHAT_UNTERMINATED: overrides dispatch.unterminated
//   - REASONCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("REASONCHAT_OLLAMA_URL"); u != "" {
		c.Local.OllamaURL = u
	} else if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Local.OllamaURL = hostToURL(host)
	}

	if model := os.Getenv("REASONCHAT_MODEL"); model != "" {
		c.Local.Model = model
	}

	if timeout := os.Getenv("REASONCHAT_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Local.TimeoutSecs = secs
		}
	}

	if policy := os.Getenv("REASONCHAT_UNTERMINATED"); policy != "" {
		c.Dispatch.Unterminated = policy
	}

	if level := os.Getenv("REASONCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// hostToURL turns an OLLAMA_HOST value ("0.0.0.0:11434", "host") into a URL.
func hostToURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	if !strings.Contains(host, ":") {
		host += ":11434"
	}
	if strings.HasPrefix(host, "0.0.0.0:") {
		host = "127.0.0.1:" + strings.TrimPrefix(host, "0.0.0.0:")
	}
	return "http://" + host
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Local.OllamaURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "local.ollama_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host:port", c.Local.OllamaURL),
		})
	}

	if strings.TrimSpace(c.Local.Model) == "" {
		errs = append(errs, ValidationError{Field: "local.model", Message: "must not be empty"})
	}

	if c.Local.TimeoutSecs < 1 || c.Local.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "local.timeout_secs",
			Message: fmt.Sprintf("%d out of range, must be 1-3600", c.Local.TimeoutSecs),
		})
	}

	if c.Local.Temperature < 0 || c.Local.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "local.temperature",
			Message: fmt.Sprintf("%g out of range, must be 0.0-2.0", c.Local.Temperature),
		})
	}

	if _, err := section.ParsePolicy(c.Dispatch.Unterminated); err != nil {
		errs = append(errs, ValidationError{Field: "dispatch.unterminated", Message: err.Error()})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns local.timeout_secs as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Local.TimeoutSecs) * time.Second
}

// UnterminatedPolicy returns the parsed dispatch.unterminated policy.
// Validate has already rejected unknown names.
func (c *Config) UnterminatedPolicy() section.UnterminatedPolicy {
	p, err := section.ParsePolicy(c.Dispatch.Unterminated)
	if err != nil {
		return section.LeaveOpen
	}
	return p
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
