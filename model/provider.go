package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts a remote completion endpoint (OpenAI, OpenRouter,
// Anthropic, Ollama).
//
// Send performs exactly one request. Reply fragments are pushed to the
// callback in arrival order; a non-nil error from the callback aborts the
// request and is returned from Send. Send classifies failures into the
// error kinds of this package: *TransientError for rate limits, server
// errors and dropped connections, *ContextLengthError when the prompt does
// not fit, ErrCancelled when ctx is done.
type Provider interface {
	Send(ctx context.Context, req Request, callback StreamCallback) (Usage, error)

	// GetModel returns the model identifier used for requests.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the endpoint is reachable.
	Ping(ctx context.Context) error
}

// CacheWarmer is implemented by providers that can pre-populate a prompt
// cache with a minimal request for the given prompt.
type CacheWarmer interface {
	WarmCache(ctx context.Context, req Request) error
}

// StreamCallback is called for each pushed chunk.
type StreamCallback func(chunk StreamChunk) error

// Request is a single completion request.
type Request struct {
	Model     string
	Messages  []Message
	Functions []mcptypes.Tool
	Stream    bool
	// Temperature is omitted from the request when nil.
	Temperature *float64
	// ExtraParams are merged into the request body as-is.
	ExtraParams map[string]any
}

// Usage is the token accounting reported by the endpoint. Zero when the
// endpoint reports nothing.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// IsZero reports whether no usage was reported.
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}
