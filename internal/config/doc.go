// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for reasonchat.
//
// Configuration is read from ~/.reasonchat/config.toml, falling back to
// ~/.reasonchat/config.json and then to built-in defaults. REASONCHAT_*
// environment variables (and OLLAMA_HOST) override file values.
//
// Example config.toml:
//
//	[local]
//	ollama_url = "http://127.0.0.1:11434"
//	model = "qwen2"
//	timeout_secs = 60
//
//	[prompt]
//	assistant_cue = "Assistant:"  # default opens with "Initiating comprehensive analysis..."
//
//	[dispatch]
//	unterminated = "leave"   # or "flush"
//
//	[log]
//	level = "info"
//
// Watch reloads the file when it changes so model, URL and dispatch policy
// can be edited while a session is running.
package config
