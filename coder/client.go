package coder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"typeraider/model"
	"typeraider/observability"
)

// Consumer receives the chunks of each attempt. Begin is called before an
// attempt and End after it, whatever the outcome.
type Consumer interface {
	Begin()
	Consume(ctx context.Context, chunk model.StreamChunk) error
	End(err error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ClientConfig bounds the retry loop.
type ClientConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultClientConfig retries after 0.125s, doubling up to 60s.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{InitialDelay: defaultInitialDelay, MaxDelay: defaultMaxDelay}
}

// Client sends requests through a provider, retrying transient failures
// with exponential backoff.
type Client struct {
	provider model.Provider
	out      Output
	cfg      ClientConfig
	sleep    Sleeper
	observer observability.Observer
}

// NewClient creates a retrying client. A nil sleeper uses SleepContext.
func NewClient(p model.Provider, out Output, cfg ClientConfig, sleep Sleeper, obs observability.Observer) *Client {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	if sleep == nil {
		sleep = SleepContext
	}
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	return &Client{provider: p, out: out, cfg: cfg, sleep: sleep, observer: obs}
}

// Send performs the request. It returns model.ErrCancelled on interrupt,
// a *model.ContextLengthError unchanged, a *model.ExhaustedError once the
// backoff is spent, and any other error as the provider returned it.
func (c *Client) Send(ctx context.Context, req model.Request, consumer Consumer) (model.Usage, error) {
	backoff := NewBackoff(c.cfg.InitialDelay, c.cfg.MaxDelay)

	for attempt := 1; ; attempt++ {
		observability.Emit(ctx, c.observer, observability.EventClientAttempt, observability.LevelVerbose, "coder.client", map[string]any{
			"attempt": attempt,
			"model":   req.Model,
		})

		usage, err := c.attempt(ctx, req, consumer)
		switch {
		case err == nil:
			return usage, nil
		case model.IsCancelled(err):
			return usage, model.ErrCancelled
		case !model.IsTransient(err):
			return usage, err
		}

		delay, ok := backoff.Next()
		if !ok {
			return usage, &model.ExhaustedError{Attempts: attempt, Last: err}
		}

		c.out.WriteWarning(fmt.Sprintf("%v. Retrying in %s seconds...", err, strconv.FormatFloat(delay.Seconds(), 'g', -1, 64)))
		observability.Emit(ctx, c.observer, observability.EventClientRetry, observability.LevelWarning, "coder.client", map[string]any{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})

		if err := c.sleep(ctx, delay); err != nil {
			return usage, model.ErrCancelled
		}
	}
}

func (c *Client) attempt(ctx context.Context, req model.Request, consumer Consumer) (usage model.Usage, err error) {
	consumer.Begin()
	defer func() { consumer.End(err) }()

	return c.provider.Send(ctx, req, func(chunk model.StreamChunk) error {
		return consumer.Consume(ctx, chunk)
	})
}
