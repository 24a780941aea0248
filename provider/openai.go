package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"typeraider/mcp"
	"typeraider/model"
)

// OpenAIProvider implements model.Provider over the OpenAI chat completions
// API. OpenRouterProvider reuses it with a different base URL.
type OpenAIProvider struct {
	client openai.Client
	model  string
	name   string
}

// NewOpenAIProvider creates an OpenAI provider. The API key is required.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return newOpenAICompatible("openai", cfg), nil
}

func newOpenAICompatible(name string, cfg Config, extra ...option.RequestOption) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.httpClient()),
		// Retries are owned by the coder's completion client.
		option.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		name:   name,
	}
}

// Send implements model.Provider.
func (p *OpenAIProvider) Send(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
	params := p.params(req)
	opts := extraParamOptions(req.ExtraParams)

	if !req.Stream {
		return p.complete(ctx, params, opts, callback)
	}

	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}
	stream := p.client.Chat.Completions.NewStreaming(ctx, params, opts...)
	defer stream.Close()

	var usage model.Usage
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
			usage = model.Usage{
				PromptTokens:     int(chunk.Usage.PromptTokens),
				CompletionTokens: int(chunk.Usage.CompletionTokens),
			}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if err := emit(callback, model.TextChunk(delta.Content)); err != nil {
			return usage, err
		}
		// Only the first call is honoured; the edit format defines a single
		// function.
		for _, tc := range delta.ToolCalls {
			if tc.Index != 0 {
				continue
			}
			call := model.CallChunk(map[string]string{
				"name":      tc.Function.Name,
				"arguments": tc.Function.Arguments,
			})
			if err := emit(callback, call); err != nil {
				return usage, err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return usage, classifyError(ctx, p.name, err)
	}
	return usage, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, params openai.ChatCompletionNewParams, opts []option.RequestOption, callback model.StreamCallback) (model.Usage, error) {
	completion, err := p.client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return model.Usage{}, classifyError(ctx, p.name, err)
	}

	usage := model.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
	}
	if len(completion.Choices) == 0 {
		return usage, nil
	}

	msg := completion.Choices[0].Message
	if err := emit(callback, model.TextChunk(msg.Content)); err != nil {
		return usage, err
	}
	if len(msg.ToolCalls) > 0 {
		call := model.CallChunk(map[string]string{
			"name":      msg.ToolCalls[0].Function.Name,
			"arguments": msg.ToolCalls[0].Function.Arguments,
		})
		if err := emit(callback, call); err != nil {
			return usage, err
		}
	}
	return usage, nil
}

func (p *OpenAIProvider) params(req model.Request) openai.ChatCompletionNewParams {
	name := req.Model
	if name == "" {
		name = p.model
	}

	params := openai.ChatCompletionNewParams{
		Messages: ToOpenAIMessages(req.Messages),
		Model:    openai.ChatModel(name),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if len(req.Functions) > 0 {
		params.Tools = mcp.ToOpenAITools(req.Functions)
	}
	return params
}

// GetModel implements model.Provider.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// SetModel implements model.Provider.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements model.Provider by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", p.name, err)
	}
	return nil
}

// extraParamOptions merges configured extra request fields into the body.
func extraParamOptions(extra map[string]any) []option.RequestOption {
	opts := make([]option.RequestOption, 0, len(extra))
	for key, value := range extra {
		opts = append(opts, option.WithJSONSet(key, value))
	}
	return opts
}

func emit(callback model.StreamCallback, chunk model.StreamChunk) error {
	if callback == nil || chunk.Kind == model.ChunkEmpty {
		return nil
	}
	return callback(chunk)
}
