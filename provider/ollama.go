package provider

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"

	"typeraider/mcp"
	"typeraider/model"
	"typeraider/ollama"
)

// OllamaProvider implements model.Provider over a local Ollama server.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider. Empty BaseURL and Model fall
// back to the client defaults.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	client, err := ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.httpClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &OllamaProvider{client: client}, nil
}

// Send implements model.Provider. Ollama delivers tool calls whole, so each
// becomes a single call chunk.
func (p *OllamaProvider) Send(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
	if req.Model != "" {
		p.client.SetModel(req.Model)
	}

	var tools []api.Tool
	if len(req.Functions) > 0 {
		tools = mcp.ToOllamaTools(req.Functions)
	}

	var usage model.Usage
	var callbackErr error
	opts := ollama.ChatOptions{
		Stream:      req.Stream,
		Temperature: req.Temperature,
		Extra:       req.ExtraParams,
	}

	err := p.client.Chat(ctx, ToOllamaMessages(req.Messages), tools, opts, func(resp api.ChatResponse) error {
		if resp.Done {
			usage = model.Usage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
			}
		}
		if err := emit(callback, model.TextChunk(resp.Message.Content)); err != nil {
			callbackErr = err
			return err
		}
		for _, call := range resp.Message.ToolCalls {
			if err := emit(callback, ollamaCallChunk(call)); err != nil {
				callbackErr = err
				return err
			}
		}
		return nil
	})

	if callbackErr != nil {
		return usage, callbackErr
	}
	if err != nil {
		return usage, classifyError(ctx, "ollama", err)
	}
	return usage, nil
}

// GetModel implements model.Provider.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// SetModel implements model.Provider.
func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// Ping implements model.Provider.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
