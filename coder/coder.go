package coder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"typeraider/mcp"
	"typeraider/model"
	"typeraider/observability"
	"typeraider/storage"
)

// Config tunes a Coder.
type Config struct {
	// Root is the working-tree root; edits outside it are refused.
	Root        string
	Stream      bool
	Temperature *float64
	ExtraParams map[string]any
	EditFormat  EditFormat
	Fence       Fence
	AutoCommits bool
	DryRun      bool
	Pricing     model.Pricing

	CacheWarmingPings    int
	CacheWarmingInterval time.Duration

	Client ClientConfig
}

// SessionSaver persists the session after each completed turn.
type SessionSaver interface {
	Save(session *storage.Session) error
}

// Coder owns one interactive session.
type Coder struct {
	cfg      Config
	provider model.Provider
	out      Output
	logger   *zap.Logger
	observer observability.Observer

	ledger    *model.Ledger
	files     *TrackedFiles
	assembler *Assembler
	client    *Client
	extractor Extractor
	applier   *Applier
	committer *Committer
	warmer    *Warmer
	functions []mcptypes.Tool

	repo     VCS
	sleep    Sleeper
	sessions SessionSaver
	session  *storage.Session

	state       State
	lastReply   string
	warnedLarge bool
}

// Option configures a Coder.
type Option func(*Coder)

// WithLogger sets the debug logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coder) { c.logger = logger }
}

// WithObserver sets the event observer.
func WithObserver(obs observability.Observer) Option {
	return func(c *Coder) { c.observer = obs }
}

// WithRepo sets the version-control collaborator.
func WithRepo(repo VCS) Option {
	return func(c *Coder) { c.repo = repo }
}

// WithSleeper replaces the backoff sleep.
func WithSleeper(sleep Sleeper) Option {
	return func(c *Coder) { c.sleep = sleep }
}

// WithSession persists the ledger to saver as session after every turn.
// Any history already in session is restored.
func WithSession(saver SessionSaver, session *storage.Session) Option {
	return func(c *Coder) {
		c.sessions = saver
		c.session = session
	}
}

// New creates a Coder for the working tree at cfg.Root.
func New(cfg Config, p model.Provider, out Output, opts ...Option) (*Coder, error) {
	if p == nil {
		return nil, errors.New("coder: provider is required")
	}
	if out == nil {
		return nil, errors.New("coder: output is required")
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.EditFormat == "" {
		cfg.EditFormat = EditFormatWhole
	}
	if cfg.Fence.Open == "" || cfg.Fence.Close == "" {
		cfg.Fence = DefaultFence
	}

	files, err := NewTrackedFiles(cfg.Root)
	if err != nil {
		return nil, err
	}

	c := &Coder{
		cfg:      cfg,
		provider: p,
		out:      out,
		files:    files,
		ledger:   model.NewLedger(cfg.Pricing),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.observer == nil {
		c.observer = observability.NoOpObserver{}
	}

	c.assembler = NewAssembler(files, out, cfg.Fence, cfg.EditFormat)
	c.client = NewClient(p, out, cfg.Client, c.sleep, c.observer)
	c.extractor = Extractor{Fence: cfg.Fence}
	c.applier = NewApplier(files, out, cfg.DryRun, c.observer)
	c.committer = NewCommitter(c.repo, out, c.observer)
	c.warmer = NewWarmer(p, cfg.CacheWarmingPings, cfg.CacheWarmingInterval, c.observer)
	if cfg.EditFormat == EditFormatFunction {
		c.functions = []mcptypes.Tool{mcp.WriteFilesTool()}
	}

	if c.session != nil {
		c.ledger.Restore(c.session.Turns)
		for _, f := range c.session.Files {
			if _, err := os.Stat(files.Abs(f)); err == nil {
				files.Add(f)
			}
		}
	}
	return c, nil
}

// Files returns the tracked-file registry.
func (c *Coder) Files() *TrackedFiles { return c.files }

// Ledger returns the session ledger.
func (c *Coder) Ledger() *model.Ledger { return c.ledger }

// State returns the current pipeline state.
func (c *Coder) State() State { return c.state }

// Close stops background work.
func (c *Coder) Close() {
	c.warmer.Stop()
}

// Run reads lines from in until EOF or /quit. Lines starting with "/" are
// commands; anything else is a turn. An interrupt cancels only the turn in
// progress.
func (c *Coder) Run(ctx context.Context, in LineReader) error {
	defer c.Close()

	for {
		line, err := in.ReadLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := c.runCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		c.RunTurn(turnCtx, line)
		stop()

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Coder) saveSession() {
	if c.sessions == nil || c.session == nil {
		return
	}
	c.session.Turns = c.ledger.History()
	c.session.Files = c.files.RelList()
	c.session.Model = c.provider.GetModel()
	if err := c.sessions.Save(c.session); err != nil {
		c.out.WriteWarning(fmt.Sprintf("Could not save session: %v", err))
		c.logger.Warn("session save failed", zap.String("session", c.session.ID), zap.Error(err))
	}
}
