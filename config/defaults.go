package config

import "time"

const defaultWarmInterval = 295 * time.Second

func DefaultSettings() *Settings {
	return &Settings{
		FenceOpen:            "```",
		FenceClose:           "```",
		CacheWarmingInterval: defaultWarmInterval,
		Pretty:               true,
		Provider: ProviderSettings{
			Type:    "openai",
			Model:   "gpt-4o",
			Timeout: 10 * time.Minute,
		},
		Model: ModelSettings{
			Stream:     true,
			EditFormat: "whole",
		},
		Git: GitSettings{
			Enabled:     true,
			AutoCommits: true,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# typeraider configuration
# Location: ~/.config/typeraider/settings.toml
# This file uses TOML format: https://toml.io

# Directory for sessions, the exchange log and debug.log
# (default: $XDG_DATA_HOME/typeraider or ~/.local/share/typeraider)
# data_directory = "~/.local/share/typeraider"

# Show edits without writing them
dry_run = false

# Delimiters around file content in prompts and replies
fence_open = "` + "```" + `"
fence_close = "` + "```" + `"

# Keep the provider prompt cache warm between turns (0 disables)
cache_warming_pings = 0
cache_warming_interval = "295s"

# Resume the latest session of the working tree on startup
restore_chat_history = false

# Answer yes to every confirmation
yes_always = false

# Colors and markdown rendering
pretty = true

[provider]
# openai, anthropic, openrouter or ollama
type = "openai"
model = "gpt-4o"
# base_url = "https://api.openai.com/v1"

# Environment variable holding the API key. TYPERAIDER_API_KEY always wins.
# api_key_env = "OPENAI_API_KEY"

insecure_skip_verify = false
timeout = "10m"
cache_prompts = false

[model]
stream = true
use_temperature = false
temperature = 0.0

# whole: fenced whole-file blocks; function: write_files function calls
edit_format = "whole"

# max_tokens = 8192
# input_cost_per_token = 0.0000025
# output_cost_per_token = 0.00001

# [model.extra_params]
# top_p = 0.9

[git]
enabled = true
auto_commits = true
`
}
