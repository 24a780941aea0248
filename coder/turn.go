package coder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"typeraider/model"
	"typeraider/observability"
)

// State is the position of a turn in the conversation-to-commit pipeline.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateAssembling
	StateExtracting
	StateApplying
	StateCommitting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateAssembling:
		return "assembling"
	case StateExtracting:
		return "extracting"
	case StateApplying:
		return "applying"
	case StateCommitting:
		return "committing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FailureReason says why a turn ended without completing.
type FailureReason string

const (
	FailureNone            FailureReason = ""
	FailureCancelled       FailureReason = "cancelled"
	FailureExhausted       FailureReason = "exhausted"
	FailureContextExceeded FailureReason = "context_exceeded"
	FailureUnexpected      FailureReason = "unexpected"
)

// ErrUnexpected wraps failures outside the known error kinds, including
// recovered panics.
var ErrUnexpected = errors.New("unexpected error")

// TurnResult describes how a turn ended. State is StateIdle for completed
// and cancelled turns and StateFailed otherwise.
type TurnResult struct {
	State   State
	Failure FailureReason
	Err     error

	Reply   string
	Edits   []model.EditInstruction
	Touched []string
	Commit  *model.CommitRecord
}

// turnSink tracks Sending and Streaming around the stream processor.
type turnSink struct {
	*StreamProcessor
	coder   *Coder
	started bool
}

func (s *turnSink) Begin() {
	s.started = false
	s.coder.setState(context.Background(), StateSending)
	s.StreamProcessor.Begin()
}

func (s *turnSink) Consume(ctx context.Context, chunk model.StreamChunk) error {
	if !s.started && chunk.Kind != model.ChunkEmpty {
		s.started = true
		s.coder.setState(ctx, StateStreaming)
	}
	return s.StreamProcessor.Consume(ctx, chunk)
}

// RunTurn sends one user message and carries the reply through extraction,
// apply and commit. Every failure is reported to the output exactly once;
// a failed or cancelled turn leaves no trace in the ledger.
func (c *Coder) RunTurn(ctx context.Context, userMessage string) (res TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("turn panicked", zap.Any("panic", r), zap.Stack("stack"))
			c.out.WriteError(fmt.Sprintf("Unexpected error: %v", r))
			res = c.fail(ctx, res, FailureUnexpected, fmt.Errorf("%w: %v", ErrUnexpected, r))
		}
	}()

	prompt := c.assembler.Assemble(c.ledger.Formatted(), userMessage)
	c.ledger.AddCurrent(model.RoleUser, userMessage)
	c.setState(ctx, StateSending)

	req := c.request(prompt)
	c.out.LogExchange(DirectionToLLM, model.FormatMessages(prompt))
	c.warmer.Warm(ctx, req)

	proc := NewStreamProcessor(c.out, c.cfg.Stream, c.observer)
	usage, err := c.client.Send(ctx, req, &turnSink{StreamProcessor: proc, coder: c})
	if err != nil {
		return c.sendFailed(ctx, res, err)
	}

	c.setState(ctx, StateAssembling)
	resp := proc.Response()
	res.Reply = resp.Text
	c.lastReply = resp.Text
	c.recordUsage(prompt, resp, usage)

	c.setState(ctx, StateExtracting)
	res.Edits = c.extract(resp)
	c.ledger.AddCurrent(model.RoleAssistant, assistantContent(resp))
	if len(res.Edits) == 0 {
		return c.finish(ctx, res)
	}
	if ctx.Err() != nil {
		return c.cancelled(ctx, res)
	}

	c.setState(ctx, StateApplying)
	res.Touched = c.applier.Apply(res.Edits)
	if len(res.Touched) == 0 || !c.cfg.AutoCommits || c.cfg.DryRun {
		return c.finish(ctx, res)
	}

	c.setState(ctx, StateCommitting)
	rec, err := c.committer.Commit(ctx, res.Touched, c.ledger.Current())
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelled(ctx, res)
		}
		c.out.WriteError(fmt.Sprintf("Unable to commit: %v", err))
		c.logger.Warn("commit failed", zap.Strings("files", res.Touched), zap.Error(err))
	}
	res.Commit = rec
	return c.finish(ctx, res)
}

func (c *Coder) request(prompt []model.Message) model.Request {
	req := model.Request{
		Model:       c.provider.GetModel(),
		Messages:    prompt,
		Stream:      c.cfg.Stream,
		Temperature: c.cfg.Temperature,
		ExtraParams: c.cfg.ExtraParams,
	}
	if c.cfg.EditFormat == EditFormatFunction {
		req.Functions = c.functions
	}
	return req
}

func (c *Coder) extract(resp model.AssembledResponse) []model.EditInstruction {
	edits := c.extractor.Extract(resp.Text)
	if !resp.HasCall() {
		return edits
	}
	if resp.ParseErr != nil {
		c.out.WriteWarning(fmt.Sprintf("Ignoring function call: %v", resp.ParseErr))
		c.logger.Debug("malformed payload", zap.String("arguments", resp.Call["arguments"]), zap.Error(resp.ParseErr))
		return edits
	}
	return append(edits, EditsFromCall(resp.Args)...)
}

// assistantContent is the text recorded for the reply. A call-only reply
// is recorded as its raw arguments.
func assistantContent(resp model.AssembledResponse) string {
	if resp.Text == "" && resp.HasCall() {
		return resp.Call["arguments"]
	}
	return resp.Text
}

func (c *Coder) recordUsage(prompt []model.Message, resp model.AssembledResponse, usage model.Usage) {
	sent, received := usage.PromptTokens, usage.CompletionTokens
	if usage.IsZero() {
		sent = model.CountMessageTokens(prompt)
		received = model.CountTokens(resp.Text + resp.Call["arguments"])
	}
	c.ledger.RecordUsage(sent, received)

	if c.cfg.Pricing == (model.Pricing{}) {
		return
	}
	c.out.WriteText(fmt.Sprintf("Tokens: %d sent, %d received. Cost: $%.4f message, $%.4f session.\n",
		sent, received, c.ledger.MessageCost(), c.ledger.TotalCost()))
}

func (c *Coder) sendFailed(ctx context.Context, res TurnResult, err error) TurnResult {
	var exhausted *model.ExhaustedError
	switch {
	case model.IsCancelled(err):
		return c.cancelled(ctx, res)
	case model.IsContextLength(err):
		c.out.WriteError(fmt.Sprintf("%v\nDrop files with /drop or clear the history with /clear, then try again.", err))
		return c.fail(ctx, res, FailureContextExceeded, err)
	case errors.As(err, &exhausted):
		c.out.WriteError(err.Error())
		return c.fail(ctx, res, FailureExhausted, err)
	default:
		c.out.WriteError(fmt.Sprintf("Unexpected error: %v", err))
		return c.fail(ctx, res, FailureUnexpected, fmt.Errorf("%w: %w", ErrUnexpected, err))
	}
}

func (c *Coder) cancelled(ctx context.Context, res TurnResult) TurnResult {
	c.out.WriteWarning("^C interrupted")
	c.ledger.DiscardCurrent()
	c.setState(ctx, StateIdle)
	res.State = StateIdle
	res.Failure = FailureCancelled
	res.Err = model.ErrCancelled
	return res
}

func (c *Coder) fail(ctx context.Context, res TurnResult, reason FailureReason, err error) TurnResult {
	c.ledger.DiscardCurrent()
	c.setState(ctx, StateFailed)
	observability.Emit(ctx, c.observer, observability.EventTurnFailed, observability.LevelError, "coder.turn", map[string]any{
		"reason": string(reason),
		"error":  err.Error(),
	})
	c.setState(ctx, StateIdle)

	res.State = StateFailed
	res.Failure = reason
	res.Err = err
	return res
}

func (c *Coder) finish(ctx context.Context, res TurnResult) TurnResult {
	c.ledger.Fold()
	c.saveSession()
	c.setState(ctx, StateIdle)
	res.State = StateIdle
	return res
}

func (c *Coder) setState(ctx context.Context, s State) {
	if c.state == s {
		return
	}
	from := c.state
	c.state = s
	observability.Emit(ctx, c.observer, observability.EventTurnState, observability.LevelVerbose, "coder.turn", map[string]any{
		"from": from.String(),
		"to":   s.String(),
	})
}
