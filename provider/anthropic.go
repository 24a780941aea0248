package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"typeraider/mcp"
	"typeraider/model"
)

const defaultAnthropicMaxTokens = 8192

// AnthropicProvider implements model.Provider over the Anthropic messages
// API. It also implements model.CacheWarmer.
type AnthropicProvider struct {
	client       *anthropic.Client
	model        anthropic.Model
	maxTokens    int64
	cachePrompts bool
}

// NewAnthropicProvider creates an Anthropic provider. The API key is
// required.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	m := anthropic.ModelClaudeSonnet4_5_20250929
	if cfg.Model != "" {
		m = anthropic.Model(cfg.Model)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	client := anthropic.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.httpClient()),
		option.WithMaxRetries(0),
	)

	return &AnthropicProvider{
		client:       &client,
		model:        m,
		maxTokens:    maxTokens,
		cachePrompts: cfg.CachePrompts,
	}, nil
}

// Send implements model.Provider.
func (p *AnthropicProvider) Send(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
	params := p.params(req, p.cachePrompts)
	opts := anthropicExtraOptions(req.ExtraParams)

	if !req.Stream {
		return p.complete(ctx, params, opts, callback)
	}

	stream := p.client.Messages.NewStreaming(ctx, params, opts...)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return model.Usage{}, fmt.Errorf("anthropic: accumulating message: %w", err)
		}

		var chunk model.StreamChunk
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if ev.ContentBlock.Type == "tool_use" {
				chunk = model.CallChunk(map[string]string{"name": ev.ContentBlock.Name})
			}
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				chunk = model.TextChunk(delta.Text)
			case anthropic.InputJSONDelta:
				chunk = model.CallChunk(map[string]string{"arguments": delta.PartialJSON})
			}
		}
		if err := emit(callback, chunk); err != nil {
			return anthropicUsage(msg), err
		}
	}

	if err := stream.Err(); err != nil {
		return anthropicUsage(msg), classifyError(ctx, "anthropic", err)
	}
	return anthropicUsage(msg), nil
}

func (p *AnthropicProvider) complete(ctx context.Context, params anthropic.MessageNewParams, opts []option.RequestOption, callback model.StreamCallback) (model.Usage, error) {
	msg, err := p.client.Messages.New(ctx, params, opts...)
	if err != nil {
		return model.Usage{}, classifyError(ctx, "anthropic", err)
	}

	usage := anthropicUsage(*msg)
	for _, block := range msg.Content {
		var chunk model.StreamChunk
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			chunk = model.TextChunk(b.Text)
		case anthropic.ToolUseBlock:
			chunk = model.CallChunk(map[string]string{
				"name":      b.Name,
				"arguments": string(b.Input),
			})
		}
		if err := emit(callback, chunk); err != nil {
			return usage, err
		}
	}
	return usage, nil
}

// WarmCache implements model.CacheWarmer with a one-token request that
// marks the system prompt cacheable.
func (p *AnthropicProvider) WarmCache(ctx context.Context, req model.Request) error {
	params := p.params(req, true)
	params.MaxTokens = 1
	if _, err := p.client.Messages.New(ctx, params); err != nil {
		return classifyError(ctx, "anthropic", err)
	}
	return nil
}

func (p *AnthropicProvider) params(req model.Request, cache bool) anthropic.MessageNewParams {
	m := anthropic.Model(req.Model)
	if m == "" {
		m = p.model
	}

	messages, system := toAnthropicMessages(req.Messages)
	if cache && len(system) > 0 {
		system[len(system)-1].CacheControl = anthropic.NewCacheControlEphemeralParam()
	}

	params := anthropic.MessageNewParams{
		Model:     m,
		Messages:  messages,
		MaxTokens: p.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Functions) > 0 {
		params.Tools = mcp.ToAnthropicTools(req.Functions)
	}
	return params
}

func anthropicUsage(msg anthropic.Message) model.Usage {
	return model.Usage{
		PromptTokens:     int(msg.Usage.InputTokens + msg.Usage.CacheReadInputTokens + msg.Usage.CacheCreationInputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}
}

func anthropicExtraOptions(extra map[string]any) []option.RequestOption {
	opts := make([]option.RequestOption, 0, len(extra))
	for key, value := range extra {
		opts = append(opts, option.WithJSONSet(key, value))
	}
	return opts
}

// GetModel implements model.Provider.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// SetModel implements model.Provider.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping implements model.Provider with a minimal request; the API has no
// health endpoint.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
