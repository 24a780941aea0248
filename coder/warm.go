package coder

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"typeraider/model"
	"typeraider/observability"
)

const defaultWarmInterval = 295 * time.Second

// Warmer keeps the provider's prompt cache warm in the background. Each
// Warm call replaces the previous warm-up. Failures are ignored.
type Warmer struct {
	provider model.Provider
	pings    int
	interval time.Duration
	observer observability.Observer

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewWarmer returns a warmer sending up to pings requests per prompt, the
// first immediately and the rest every interval. pings <= 0 disables it.
func NewWarmer(p model.Provider, pings int, interval time.Duration, obs observability.Observer) *Warmer {
	if interval <= 0 {
		interval = defaultWarmInterval
	}
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	return &Warmer{provider: p, pings: pings, interval: interval, observer: obs}
}

// Warm starts warming for req without blocking. req must not be modified
// afterwards.
func (w *Warmer) Warm(ctx context.Context, req model.Request) {
	if w == nil || w.pings <= 0 {
		return
	}
	w.Stop()

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(ctx)
	w.cancel = cancel
	w.group = g

	g.Go(func() error {
		for i := 0; i < w.pings; i++ {
			if i > 0 {
				timer := time.NewTimer(w.interval)
				select {
				case <-gctx.Done():
					timer.Stop()
					return nil
				case <-timer.C:
				}
			}

			err := w.ping(gctx, req)
			if gctx.Err() != nil {
				return nil
			}
			data := map[string]any{"ping": i + 1}
			if err != nil {
				data["error"] = err.Error()
			}
			observability.Emit(gctx, w.observer, observability.EventCacheWarm, observability.LevelVerbose, "coder.warm", data)
		}
		return nil
	})
}

func (w *Warmer) ping(ctx context.Context, req model.Request) error {
	if cw, ok := w.provider.(model.CacheWarmer); ok {
		return cw.WarmCache(ctx, req)
	}
	return w.provider.Ping(ctx)
}

// Stop cancels the running warm-up and waits for it to exit.
func (w *Warmer) Stop() {
	if w == nil || w.cancel == nil {
		return
	}
	w.cancel()
	_ = w.group.Wait()
	w.cancel = nil
	w.group = nil
}
