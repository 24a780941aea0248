package coder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeraider/model"
	"typeraider/provider/testutil"
)

type turnFixture struct {
	coder    *Coder
	provider *testutil.MockProvider
	out      *fakeOutput
	repo     *fakeVCS
	observer *captureObserver
	sleeper  *noSleep
	dir      string
}

func newTurnFixture(t *testing.T, cfg Config, replies ...testutil.Reply) *turnFixture {
	t.Helper()
	f := &turnFixture{
		provider: testutil.NewScriptedProvider("test-model", replies...),
		out:      &fakeOutput{},
		repo:     &fakeVCS{},
		observer: &captureObserver{},
		sleeper:  &noSleep{},
		dir:      t.TempDir(),
	}
	cfg.Root = f.dir
	c, err := New(cfg, f.provider, f.out,
		WithRepo(f.repo),
		WithObserver(f.observer),
		WithSleeper(f.sleeper.Sleep),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	f.coder = c
	return f
}

func defaultTurnConfig() Config {
	return Config{Stream: true, AutoCommits: true}
}

func TestRunTurn_RenameScenario(t *testing.T) {
	reply := testutil.EditReply("Renamed foo to bar.", "bar.py", "def bar():\n    return 1\n")
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks(reply, 5)})
	writeTestFile(t, f.dir, "bar.py", "def foo():\n    return 1\n")
	f.coder.Files().Add("bar.py")

	res := f.coder.RunTurn(context.Background(), "rename foo to bar")

	require.NoError(t, res.Err)
	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, "def bar():\n    return 1\n", readTestFile(t, f.dir, "bar.py"))
	assert.Equal(t, []string{"bar.py"}, res.Touched)
	require.NotNil(t, res.Commit)
	assert.NotEmpty(t, res.Commit.Hash)
	require.Len(t, f.repo.commits, 1)
	assert.Contains(t, f.repo.commits[0].message, "USER: rename foo to bar")

	history := f.coder.Ledger().History()
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "rename foo to bar", history[0].Content)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
	assert.Equal(t, reply, history[1].Content)
	assert.Empty(t, f.coder.Ledger().Current())

	assert.Equal(t, []string{"sending", "streaming", "assembling", "extracting", "applying", "committing", "idle"}, f.observer.states())
}

func TestRunTurn_PromptCarriesFilesAndHistory(t *testing.T) {
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks("ok", 10)})
	writeTestFile(t, f.dir, "a.py", "a = 1\n")
	f.coder.Files().Add("a.py")

	f.coder.RunTurn(context.Background(), "first")
	f.coder.RunTurn(context.Background(), "second")

	reqs := f.provider.Requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	assert.Equal(t, "test-model", reqs[1].Model)
	assert.Contains(t, msgs[1].Content, "a = 1")
	assert.Equal(t, "first", msgs[3].Content)
	assert.Equal(t, "ok", msgs[4].Content)
	assert.Equal(t, "second", msgs[len(msgs)-1].Content)
	assert.Nil(t, reqs[1].Functions)
}

func TestRunTurn_NoEditsSkipsApplyAndCommit(t *testing.T) {
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks("The code already does that.", 4)})

	res := f.coder.RunTurn(context.Background(), "does it handle nil?")

	assert.Equal(t, StateIdle, res.State)
	assert.Empty(t, res.Edits)
	assert.Empty(t, res.Touched)
	assert.Empty(t, f.repo.commits)
	assert.NotContains(t, f.observer.states(), "applying")
	assert.NotContains(t, f.observer.states(), "committing")
	assert.Len(t, f.coder.Ledger().History(), 2)
}

func TestRunTurn_TwoBlocksOneCommit(t *testing.T) {
	reply := testutil.EditReply("Both.", "a.py", "a = 2\n") + "\n" + testutil.EditReply("", "b.py", "b = 2\n")
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks(reply, 8)})
	writeTestFile(t, f.dir, "a.py", "a = 1\n")
	writeTestFile(t, f.dir, "b.py", "b = 1\n")
	f.coder.AddFiles("*.py")

	res := f.coder.RunTurn(context.Background(), "bump both")

	assert.Equal(t, "a = 2\n", readTestFile(t, f.dir, "a.py"))
	assert.Equal(t, "b = 2\n", readTestFile(t, f.dir, "b.py"))
	require.Len(t, f.repo.commits, 1)
	assert.Equal(t, []string{"a.py", "b.py"}, f.repo.commits[0].files)
	assert.Equal(t, []string{"a.py", "b.py"}, res.Touched)
}

func TestRunTurn_MalformedBlockAppliesOnlyGoodOne(t *testing.T) {
	reply := testutil.EditReply("One good, one cut off.", "a.py", "a = 2\n") + "\nb.py\n```\nb = 2\n"
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks(reply, 8)})
	writeTestFile(t, f.dir, "a.py", "a = 1\n")
	writeTestFile(t, f.dir, "b.py", "b = 1\n")
	f.coder.AddFiles("a.py", "b.py")

	res := f.coder.RunTurn(context.Background(), "bump both")

	assert.Equal(t, []model.EditInstruction{{Path: "a.py", Content: "a = 2\n"}}, res.Edits)
	assert.Equal(t, "a = 2\n", readTestFile(t, f.dir, "a.py"))
	assert.Equal(t, "b = 1\n", readTestFile(t, f.dir, "b.py"))
	require.Len(t, f.repo.commits, 1)
	assert.Equal(t, []string{"a.py"}, f.repo.commits[0].files)
}

func TestRunTurn_MalformedBlockFirstAppliesOnlyGoodOne(t *testing.T) {
	reply := "Cut off first.\n\na.py\n```\na = 2\n\nb.py\n```python\nb = 2\n```\n"
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks(reply, 8)})
	writeTestFile(t, f.dir, "a.py", "a = 1\n")
	writeTestFile(t, f.dir, "b.py", "b = 1\n")
	f.coder.AddFiles("a.py", "b.py")

	res := f.coder.RunTurn(context.Background(), "bump both")

	assert.Equal(t, []model.EditInstruction{{Path: "b.py", Content: "b = 2\n"}}, res.Edits)
	assert.Equal(t, "a = 1\n", readTestFile(t, f.dir, "a.py"))
	assert.Equal(t, "b = 2\n", readTestFile(t, f.dir, "b.py"))
	require.Len(t, f.repo.commits, 1)
	assert.Equal(t, []string{"b.py"}, f.repo.commits[0].files)
}

func TestRunTurn_RetriesThenSucceeds(t *testing.T) {
	transient := &model.TransientError{Err: errors.New("503 service unavailable")}
	f := newTurnFixture(t, defaultTurnConfig(),
		testutil.Reply{Err: transient},
		testutil.Reply{Err: transient},
		testutil.Reply{Err: transient},
		testutil.Reply{Chunks: testutil.TextChunks("fine", 2)},
	)

	res := f.coder.RunTurn(context.Background(), "hello")

	require.NoError(t, res.Err)
	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, []string{
		"503 service unavailable. Retrying in 0.125 seconds...",
		"503 service unavailable. Retrying in 0.25 seconds...",
		"503 service unavailable. Retrying in 0.5 seconds...",
	}, f.out.warnings)
	assert.Len(t, f.coder.Ledger().History(), 2)
}

func TestRunTurn_ContextLength(t *testing.T) {
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Err: &model.ContextLengthError{Err: errors.New("prompt is too long")}})

	res := f.coder.RunTurn(context.Background(), "hello")

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, FailureContextExceeded, res.Failure)
	assert.Len(t, f.provider.Requests(), 1)
	assert.Empty(t, f.sleeper.delays)
	require.Len(t, f.out.errors, 1)
	assert.Contains(t, f.out.errors[0], "exhausted")
	assert.Empty(t, f.coder.Ledger().History())
	assert.Empty(t, f.coder.Ledger().Current())
	assert.Equal(t, StateIdle, f.coder.State())
	assert.Equal(t, []string{"sending", "failed", "idle"}, f.observer.states())
}

func TestRunTurn_Exhausted(t *testing.T) {
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Err: &model.TransientError{Err: errors.New("overloaded")}})

	res := f.coder.RunTurn(context.Background(), "hello")

	assert.Equal(t, FailureExhausted, res.Failure)
	require.Len(t, f.out.errors, 1)
	assert.Contains(t, f.out.errors[0], "exhausted")
	assert.Empty(t, f.coder.Ledger().Formatted())
	assert.Len(t, f.observer.ofType("turn.failed"), 1)
}

func TestRunTurn_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newTurnFixture(t, defaultTurnConfig())
	f.provider.SendFunc = func(ctx context.Context, req model.Request, cb model.StreamCallback) (model.Usage, error) {
		if err := cb(model.TextChunk("partial")); err != nil {
			return model.Usage{}, err
		}
		cancel()
		return model.Usage{}, cb(model.TextChunk(" more"))
	}

	res := f.coder.RunTurn(ctx, "hello")

	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, FailureCancelled, res.Failure)
	assert.Empty(t, f.out.errors)
	assert.Equal(t, []string{"^C interrupted"}, f.out.warnings)
	assert.Empty(t, f.coder.Ledger().Formatted())
}

func TestRunTurn_UnexpectedErrorAndPanic(t *testing.T) {
	f := newTurnFixture(t, defaultTurnConfig())
	f.provider.SendFunc = func(context.Context, model.Request, model.StreamCallback) (model.Usage, error) {
		return model.Usage{}, errors.New("401 unauthorized")
	}

	res := f.coder.RunTurn(context.Background(), "hello")
	assert.Equal(t, FailureUnexpected, res.Failure)
	assert.ErrorIs(t, res.Err, ErrUnexpected)
	require.Len(t, f.out.errors, 1)

	f.provider.SendFunc = func(context.Context, model.Request, model.StreamCallback) (model.Usage, error) {
		panic("boom")
	}
	res = f.coder.RunTurn(context.Background(), "again")
	assert.Equal(t, FailureUnexpected, res.Failure)
	assert.Len(t, f.out.errors, 2)
	assert.Equal(t, StateIdle, f.coder.State())
	assert.Empty(t, f.coder.Ledger().Formatted())
}

func TestRunTurn_DryRunAndNoAutoCommit(t *testing.T) {
	reply := testutil.EditReply("", "a.py", "a = 2\n")

	for _, cfg := range []Config{{DryRun: true, AutoCommits: true}, {AutoCommits: false}} {
		f := newTurnFixture(t, cfg, testutil.Reply{Chunks: testutil.TextChunks(reply, 3)})
		writeTestFile(t, f.dir, "a.py", "a = 1\n")
		f.coder.Files().Add("a.py")

		res := f.coder.RunTurn(context.Background(), "bump")

		assert.Equal(t, []string{"a.py"}, res.Touched)
		assert.Empty(t, f.repo.commits)
		assert.Nil(t, res.Commit)
	}
}

func TestRunTurn_CommitFailureKeepsEdits(t *testing.T) {
	reply := testutil.EditReply("", "a.py", "a = 2\n")
	f := newTurnFixture(t, defaultTurnConfig(), testutil.Reply{Chunks: testutil.TextChunks(reply, 3)})
	f.repo.err = errors.New("index.lock exists")
	writeTestFile(t, f.dir, "a.py", "a = 1\n")
	f.coder.Files().Add("a.py")

	res := f.coder.RunTurn(context.Background(), "bump")

	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, "a = 2\n", readTestFile(t, f.dir, "a.py"))
	assert.Equal(t, []string{"Unable to commit: index.lock exists"}, f.out.errors)
	assert.Len(t, f.coder.Ledger().History(), 2)
}

func TestRunTurn_FunctionFormat(t *testing.T) {
	cfg := defaultTurnConfig()
	cfg.EditFormat = EditFormatFunction
	args := `{"explanation":"new file","files":[{"path":"new.py","content":"x = 1\n"}]}`
	f := newTurnFixture(t, cfg, testutil.Reply{Chunks: []model.StreamChunk{
		model.TextChunk("Creating it."),
		model.CallChunk(map[string]string{"name": "write_files"}),
		model.CallChunk(map[string]string{"arguments": args[:20]}),
		model.CallChunk(map[string]string{"arguments": args[20:]}),
	}})

	res := f.coder.RunTurn(context.Background(), "add new.py")

	require.Len(t, f.provider.Requests()[0].Functions, 1)
	assert.Equal(t, "write_files", f.provider.Requests()[0].Functions[0].Name)
	assert.Equal(t, []string{"new.py"}, res.Touched)
	assert.Equal(t, "x = 1\n", readTestFile(t, f.dir, "new.py"))
	assert.Equal(t, []string{"Create new file new.py?"}, f.out.questions)
}

func TestRunTurn_MalformedCallDegrades(t *testing.T) {
	cfg := defaultTurnConfig()
	cfg.EditFormat = EditFormatFunction
	f := newTurnFixture(t, cfg, testutil.Reply{Chunks: []model.StreamChunk{
		model.CallChunk(map[string]string{"name": "write_files", "arguments": `{"files":[{"path"`}),
	}})

	res := f.coder.RunTurn(context.Background(), "edit")

	assert.Equal(t, StateIdle, res.State)
	assert.Empty(t, res.Edits)
	require.Len(t, f.out.warnings, 1)
	assert.Contains(t, f.out.warnings[0], "Ignoring function call")
	history := f.coder.Ledger().History()
	require.Len(t, history, 2)
	assert.Equal(t, `{"files":[{"path"`, history[1].Content)
}

func TestRunTurn_UsageAndCost(t *testing.T) {
	cfg := defaultTurnConfig()
	cfg.Pricing = model.Pricing{InputPerToken: 0.001, OutputPerToken: 0.002}
	f := newTurnFixture(t, cfg, testutil.Reply{
		Chunks: testutil.TextChunks("ok", 2),
		Usage:  model.Usage{PromptTokens: 100, CompletionTokens: 10},
	})

	f.coder.RunTurn(context.Background(), "hi")

	l := f.coder.Ledger()
	assert.Equal(t, 100, l.MessageTokensSent())
	assert.Equal(t, 10, l.MessageTokensReceived())
	assert.InDelta(t, 0.12, l.TotalCost(), 1e-9)
	assert.Contains(t, f.out.Text(), "Tokens: 100 sent, 10 received.")
}
