package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"typeraider/model"
	"typeraider/provider"
)

// ProviderSettings is the [provider] section.
type ProviderSettings struct {
	Type    string `toml:"type"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv          string        `toml:"api_key_env"`
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`
	Timeout            time.Duration `toml:"timeout"`
	CachePrompts       bool          `toml:"cache_prompts"`
}

// ModelSettings is the [model] section.
type ModelSettings struct {
	Stream         bool    `toml:"stream"`
	Temperature    float64 `toml:"temperature"`
	UseTemperature bool    `toml:"use_temperature"`
	EditFormat     string  `toml:"edit_format"`
	MaxTokens      int64   `toml:"max_tokens"`
	model.Pricing
	ExtraParams map[string]any `toml:"extra_params"`
}

// GitSettings is the [git] section.
type GitSettings struct {
	Enabled     bool `toml:"enabled"`
	AutoCommits bool `toml:"auto_commits"`
}

// Settings mirrors settings.toml.
type Settings struct {
	DataDirectory        string        `toml:"data_directory"`
	DryRun               bool          `toml:"dry_run"`
	FenceOpen            string        `toml:"fence_open"`
	FenceClose           string        `toml:"fence_close"`
	CacheWarmingPings    int           `toml:"cache_warming_pings"`
	CacheWarmingInterval time.Duration `toml:"cache_warming_interval"`
	RestoreChatHistory   bool          `toml:"restore_chat_history"`
	YesAlways            bool          `toml:"yes_always"`
	Pretty               bool          `toml:"pretty"`

	Provider ProviderSettings `toml:"provider"`
	Model    ModelSettings    `toml:"model"`
	Git      GitSettings      `toml:"git"`
}

// Config is the resolved runtime configuration: settings plus environment
// overrides.
type Config struct {
	Settings

	// APIKey is resolved from the environment, never read from disk.
	APIKey string
	Debug  bool
}

func (c *Config) DataDir() string {
	if c.DataDirectory == "" {
		return DefaultDataDir()
	}
	return ExpandPath(c.DataDirectory)
}

// Temperature returns the sampling temperature, nil when unset.
func (c *Config) Temperature() *float64 {
	if !c.Model.UseTemperature {
		return nil
	}
	t := c.Model.Temperature
	return &t
}

// ProviderConfig builds the provider factory input.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Type:               provider.MapProviderIDToType(c.Provider.Type),
		BaseURL:            c.Provider.BaseURL,
		Model:              c.Provider.Model,
		APIKey:             c.APIKey,
		InsecureSkipVerify: c.Provider.InsecureSkipVerify,
		Timeout:            c.Provider.Timeout,
		MaxTokens:          c.Model.MaxTokens,
		CachePrompts:       c.Provider.CachePrompts || c.CacheWarmingPings > 0,
	}
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("TYPERAIDER_PROVIDER"); p != "" {
		c.Provider.Type = p
	}
	if m := os.Getenv("TYPERAIDER_MODEL"); m != "" {
		c.Provider.Model = m
	}
	if u := os.Getenv("TYPERAIDER_BASE_URL"); u != "" {
		c.Provider.BaseURL = u
	}
	if dataDir := os.Getenv("TYPERAIDER_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	c.Debug = CheckDebug()
	c.ResolveAPIKey()
}

// ResolveAPIKey looks the API key up again, for when the provider type
// changed after Load.
func (c *Config) ResolveAPIKey() {
	c.APIKey = resolveAPIKey(c.Provider)
}

// CheckDebug reports whether TYPERAIDER_DEBUG enables the debug log.
func CheckDebug() bool {
	debug := os.Getenv("TYPERAIDER_DEBUG")
	return debug == "true" || debug == "1"
}

// resolveAPIKey tries TYPERAIDER_API_KEY, then the configured variable,
// then the provider's conventional one.
func resolveAPIKey(p ProviderSettings) string {
	if key := os.Getenv("TYPERAIDER_API_KEY"); key != "" {
		return key
	}
	if p.APIKeyEnv != "" {
		if key := os.Getenv(p.APIKeyEnv); key != "" {
			return key
		}
	}
	return os.Getenv(defaultAPIKeyEnv(p.Type))
}

func defaultAPIKeyEnv(providerType string) string {
	switch provider.MapProviderIDToType(providerType) {
	case provider.ProviderTypeAnthropic:
		return "ANTHROPIC_API_KEY"
	case provider.ProviderTypeOpenRouter:
		return "OPENROUTER_API_KEY"
	case provider.ProviderTypeOllama:
		return ""
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks the settings for values the rest of the program cannot
// work with.
func (c *Config) Validate() error {
	switch provider.MapProviderIDToType(c.Provider.Type) {
	case provider.ProviderTypeOpenAI, provider.ProviderTypeAnthropic, provider.ProviderTypeOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("no API key for provider %s: set TYPERAIDER_API_KEY or %s", c.Provider.Type, defaultAPIKeyEnv(c.Provider.Type))
		}
	case provider.ProviderTypeOllama:
	default:
		return fmt.Errorf("unknown provider type %q", c.Provider.Type)
	}

	switch strings.ToLower(c.Model.EditFormat) {
	case "", "whole", "function":
	default:
		return fmt.Errorf("unknown edit_format %q (want whole or function)", c.Model.EditFormat)
	}

	if (c.FenceOpen == "") != (c.FenceClose == "") {
		return fmt.Errorf("fence_open and fence_close must be set together")
	}
	if c.CacheWarmingPings < 0 {
		return fmt.Errorf("cache_warming_pings must not be negative")
	}
	return nil
}

// Load reads ~/.config/typeraider/settings.toml, creating it on first run.
func Load() (*Config, error) {
	return LoadFrom(SettingsFilePath())
}

// LoadFrom reads the settings file at path, creating it from the template
// when missing, and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{Settings: *settings}
	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
