package provider

import (
	"fmt"

	"github.com/openai/openai-go/v3/option"
)

// OpenRouterProvider talks to OpenRouter, which exposes the OpenAI chat
// completions API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates an OpenRouter provider. The API key is
// required.
func NewOpenRouterProvider(cfg Config) (*OpenRouterProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic/claude-sonnet-4.5"
	}

	p := newOpenAICompatible("openrouter", cfg,
		option.WithHeader("HTTP-Referer", "https://github.com/typeraider/typeraider"),
		option.WithHeader("X-Title", "typeraider"),
	)
	return &OpenRouterProvider{OpenAIProvider: p}, nil
}
