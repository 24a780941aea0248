package coder

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeraider/model"
	"typeraider/provider/testutil"
)

func TestWarmer_PingsUpToLimit(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{}, 8)
	p := &testutil.WarmingProvider{
		MockProvider: testutil.NewMockProvider("m"),
		WarmFunc: func(ctx context.Context, req model.Request) error {
			n.Add(1)
			done <- struct{}{}
			return nil
		},
	}
	w := NewWarmer(p, 3, time.Millisecond, nil)

	w.Warm(context.Background(), model.Request{Model: "m"})
	for range 3 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("warm ping not sent")
		}
	}
	w.Stop()

	assert.Equal(t, int32(3), n.Load())
}

func TestWarmer_SurvivesTurnCancellation(t *testing.T) {
	pinged := make(chan struct{}, 1)
	p := testutil.NewMockProvider("m")
	p.PingFunc = func(ctx context.Context) error {
		pinged <- struct{}{}
		return ctx.Err()
	}
	w := NewWarmer(p, 1, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.Warm(ctx, model.Request{})
	select {
	case <-pinged:
	case <-time.After(5 * time.Second):
		t.Fatal("ping not sent")
	}
	w.Stop()
}

func TestWarmer_WarmReplacesPrevious(t *testing.T) {
	var pings atomic.Int32
	first := make(chan struct{}, 1)
	p := testutil.NewMockProvider("m")
	p.PingFunc = func(ctx context.Context) error {
		if pings.Add(1) == 1 {
			first <- struct{}{}
		}
		return nil
	}
	w := NewWarmer(p, 5, time.Hour, nil)

	w.Warm(context.Background(), model.Request{})
	<-first
	w.Warm(context.Background(), model.Request{})
	w.Stop()

	require.LessOrEqual(t, pings.Load(), int32(2))
}

func TestWarmer_Disabled(t *testing.T) {
	p := testutil.NewMockProvider("m")
	p.PingFunc = func(context.Context) error {
		t.Error("unexpected ping")
		return nil
	}
	w := NewWarmer(p, 0, 0, nil)
	w.Warm(context.Background(), model.Request{})
	w.Stop()

	var nilWarmer *Warmer
	nilWarmer.Warm(context.Background(), model.Request{})
	nilWarmer.Stop()
	assert.Nil(t, nilWarmer)
}

// plainModelProvider keeps its model in an unguarded field, like the SDK
// providers do.
type plainModelProvider struct {
	model  string
	pinged chan struct{}
}

func (p *plainModelProvider) Send(context.Context, model.Request, model.StreamCallback) (model.Usage, error) {
	return model.Usage{}, nil
}
func (p *plainModelProvider) GetModel() string           { return p.model }
func (p *plainModelProvider) SetModel(m string)          { p.model = m }
func (p *plainModelProvider) Ping(context.Context) error { return nil }

func (p *plainModelProvider) WarmCache(ctx context.Context, req model.Request) error {
	if p.model == "" {
		return errors.New("no model")
	}
	select {
	case p.pinged <- struct{}{}:
	default:
	}
	return nil
}

func TestModelSwitchStopsWarming(t *testing.T) {
	p := &plainModelProvider{model: "m1", pinged: make(chan struct{}, 1)}
	c, err := New(Config{Root: t.TempDir(), CacheWarmingPings: 1000, CacheWarmingInterval: time.Millisecond}, p, &fakeOutput{})
	require.NoError(t, err)
	defer c.Close()

	c.warmer.Warm(context.Background(), model.Request{})
	select {
	case <-p.pinged:
	case <-time.After(5 * time.Second):
		t.Fatal("warm ping not sent")
	}

	for _, name := range []string{"m2", "m3", "m4"} {
		c.runCommand(context.Background(), "/model "+name)
	}

	assert.Equal(t, "m4", c.provider.GetModel())
	// one ping may have landed before the first switch
	select {
	case <-p.pinged:
	default:
	}
	select {
	case <-p.pinged:
		t.Fatal("warming continued after a model switch")
	case <-time.After(20 * time.Millisecond):
	}
}
