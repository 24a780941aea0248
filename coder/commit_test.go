package coder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeraider/model"
)

func exchange(user, assistant string) []model.Turn {
	return []model.Turn{
		{Role: model.RoleUser, Content: user},
		{Role: model.RoleAssistant, Content: assistant},
	}
}

func TestCommitSeed(t *testing.T) {
	got := CommitSeed(exchange("rename foo to bar", "Done."))
	assert.Equal(t, "USER: rename foo to bar\nASSISTANT: Done.\n", got)
}

func TestCommitMessage(t *testing.T) {
	msg := CommitMessage(exchange("rename foo to bar\nand update callers", "ok"))
	subject, body, _ := strings.Cut(msg, "\n\n")

	assert.Equal(t, "rename foo to bar", subject)
	assert.Equal(t, "USER: rename foo to bar\nand update callers\nASSISTANT: ok\n", body)

	long := CommitMessage(exchange(strings.Repeat("x", 100), "ok"))
	assert.Len(t, subjectOf(long), maxSubjectLen)
	assert.True(t, strings.HasSuffix(subjectOf(long), "..."))

	wide := subjectOf(CommitMessage(exchange(strings.Repeat("ü", 100), "ok")))
	assert.True(t, utf8.ValidString(wide))
	assert.Equal(t, maxSubjectLen, utf8.RuneCountInString(wide))
}

func TestCommitter_CommitAndUndo(t *testing.T) {
	repo := &fakeVCS{}
	out := &fakeOutput{}
	c := NewCommitter(repo, out, nil)
	ctx := context.Background()

	rec, err := c.Commit(ctx, []string{"a.py", "b.py"}, exchange("change both", "done"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.Hash)
	require.Len(t, repo.commits, 1)
	assert.Equal(t, []string{"a.py", "b.py"}, repo.commits[0].files)
	assert.True(t, repo.commits[0].flags.MachineGenerated)
	assert.Contains(t, out.Text(), "Commit abc0001 change both")
	assert.Same(t, rec, c.Last())

	require.NoError(t, c.Undo(ctx))
	assert.Equal(t, []model.CommitRecord{*rec}, repo.undone)
	assert.Nil(t, c.Last())

	require.NoError(t, c.Undo(ctx))
	assert.Len(t, repo.undone, 1)
	assert.Equal(t, []string{"No automatic commit to undo in this session."}, out.warnings)
}

func TestCommitter_NothingToCommit(t *testing.T) {
	repo := &fakeVCS{}
	rec, err := NewCommitter(repo, &fakeOutput{}, nil).Commit(context.Background(), nil, nil)

	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, repo.commits)
}

func TestCommitter_NoRepository(t *testing.T) {
	out := &fakeOutput{}
	c := NewCommitter(nil, out, nil)

	rec, err := c.Commit(context.Background(), []string{"a.py"}, nil)
	assert.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, c.Undo(context.Background()))

	assert.Len(t, out.warnings, 2)
	paths, err := c.Status(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, paths)
}

func TestCommitter_RepositoryError(t *testing.T) {
	repo := &fakeVCS{err: errors.New("index.lock exists")}
	c := NewCommitter(repo, &fakeOutput{}, nil)

	rec, err := c.Commit(context.Background(), []string{"a.py"}, nil)
	assert.EqualError(t, err, "index.lock exists")
	assert.Nil(t, rec)
	assert.Nil(t, c.Last())
}
