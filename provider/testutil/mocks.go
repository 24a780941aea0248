package testutil

import (
	"context"
	"sync"

	"typeraider/model"
)

// MockProvider implements model.Provider for testing.
type MockProvider struct {
	SendFunc func(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error)
	PingFunc func(ctx context.Context) error

	mu           sync.Mutex
	requests     []model.Request
	currentModel string
}

// NewMockProvider creates a mock provider that replies with a fixed text.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.SendFunc = mock.defaultSend
	mock.PingFunc = func(ctx context.Context) error { return nil }
	return mock
}

func (m *MockProvider) defaultSend(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
	if len(req.Messages) == 0 {
		return model.Usage{}, nil
	}
	return model.Usage{}, callback(model.TextChunk("Mock response"))
}

func (m *MockProvider) Send(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.SendFunc(ctx, req, callback)
}

// Requests returns every request received so far.
func (m *MockProvider) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Request(nil), m.requests...)
}

func (m *MockProvider) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// Reply is one scripted outcome of a Send call.
type Reply struct {
	Chunks []model.StreamChunk
	Usage  model.Usage
	// Err is returned after the chunks have been pushed.
	Err error
}

// NewScriptedProvider returns a mock that answers successive Send calls
// with the given replies. Calls beyond the script repeat the last reply.
func NewScriptedProvider(modelName string, replies ...Reply) *MockProvider {
	mock := NewMockProvider(modelName)
	var mu sync.Mutex
	next := 0
	mock.SendFunc = func(ctx context.Context, req model.Request, callback model.StreamCallback) (model.Usage, error) {
		mu.Lock()
		i := next
		if next < len(replies)-1 {
			next++
		}
		mu.Unlock()
		if len(replies) == 0 {
			return model.Usage{}, nil
		}

		r := replies[i]
		for _, chunk := range r.Chunks {
			if err := ctx.Err(); err != nil {
				return model.Usage{}, model.ErrCancelled
			}
			if err := callback(chunk); err != nil {
				return model.Usage{}, err
			}
		}
		return r.Usage, r.Err
	}
	return mock
}

// WarmingProvider is a MockProvider that also implements model.CacheWarmer.
type WarmingProvider struct {
	*MockProvider
	WarmFunc func(ctx context.Context, req model.Request) error
}

func (w *WarmingProvider) WarmCache(ctx context.Context, req model.Request) error {
	if w.WarmFunc == nil {
		return nil
	}
	return w.WarmFunc(ctx, req)
}
