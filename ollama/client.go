// Package ollama wraps the Ollama API client with the request shape the
// coder needs: optional streaming, temperature and extra model options.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

// ChatOptions tune a single chat request.
type ChatOptions struct {
	Stream      bool
	Temperature *float64
	// Extra entries are passed through as model options (num_ctx, top_p, ...).
	Extra map[string]any
}

// ResponseFunc receives every response object of a chat request.
type ResponseFunc func(resp api.ChatResponse) error

func NewClient(baseURL, model string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen2.5-coder:latest"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsedURL, httpClient),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Chat sends messages with optional tool definitions. fn is called once per
// streamed object, or once in total when streaming is off.
func (c *Client) Chat(ctx context.Context, messages []api.Message, tools []api.Tool, opts ChatOptions, fn ResponseFunc) error {
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   &opts.Stream,
		Options:  requestOptions(opts),
	}
	return c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if fn == nil {
			return nil
		}
		return fn(resp)
	})
}

func requestOptions(opts ChatOptions) map[string]any {
	if opts.Temperature == nil && len(opts.Extra) == 0 {
		return nil
	}
	out := make(map[string]any, len(opts.Extra)+1)
	for k, v := range opts.Extra {
		out[k] = v
	}
	if opts.Temperature != nil {
		out["temperature"] = *opts.Temperature
	}
	return out
}

func (c *Client) SetModel(model string) {
	c.model = model
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}
