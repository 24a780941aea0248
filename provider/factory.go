package provider

import (
	"fmt"

	"typeraider/model"
)

// NewProvider creates a provider based on configuration.
//
// Returns an error if the provider type is unknown or the provider-specific
// constructor fails (missing API key, invalid URL).
func NewProvider(cfg Config) (model.Provider, error) {
	var (
		p   model.Provider
		err error
	)
	switch cfg.Type {
	case ProviderTypeOllama:
		p, err = NewOllamaProvider(cfg)
	case ProviderTypeOpenRouter:
		p, err = NewOpenRouterProvider(cfg)
	case ProviderTypeOpenAI:
		p, err = NewOpenAIProvider(cfg)
	case ProviderTypeAnthropic:
		p, err = NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MapProviderIDToType converts a configured provider ID to a ProviderType.
// Unknown IDs are passed through unchanged and rejected by NewProvider.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter":
		return ProviderTypeOpenRouter
	case "openai":
		return ProviderTypeOpenAI
	case "anthropic", "claude":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
