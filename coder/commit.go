package coder

import (
	"context"
	"fmt"
	"strings"

	"typeraider/model"
	"typeraider/observability"
)

const maxSubjectLen = 72

// Committer records applied edits as commits and undoes the latest one.
type Committer struct {
	repo     VCS
	out      Output
	observer observability.Observer

	last *model.CommitRecord
}

// NewCommitter creates a commit coordinator. repo may be nil when the
// working tree is not under version control.
func NewCommitter(repo VCS, out Output, obs observability.Observer) *Committer {
	if obs == nil {
		obs = observability.NoOpObserver{}
	}
	return &Committer{repo: repo, out: out, observer: obs}
}

// CommitSeed renders the turns as "ROLE: content" lines.
func CommitSeed(turns []model.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(t.Role)), t.Content)
	}
	return b.String()
}

// CommitMessage builds a commit message from the seed: a subject taken from
// the first user line, then the seed as body.
func CommitMessage(turns []model.Turn) string {
	subject := "Apply assistant edits"
	for _, t := range turns {
		if t.Role != model.RoleUser {
			continue
		}
		line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(t.Content), "\n", 2)[0])
		if line != "" {
			subject = line
		}
		break
	}
	if r := []rune(subject); len(r) > maxSubjectLen {
		subject = strings.TrimSpace(string(r[:maxSubjectLen-3])) + "..."
	}
	return subject + "\n\n" + CommitSeed(turns)
}

// Commit commits files with a message built from the current exchange.
// It returns nil, nil when there is nothing to commit or no repository.
func (c *Committer) Commit(ctx context.Context, files []string, turns []model.Turn) (*model.CommitRecord, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if c.repo == nil {
		c.out.WriteWarning("No git repository found, changes were not committed.")
		return nil, nil
	}

	rec, err := c.repo.Commit(ctx, files, CommitMessage(turns), model.CommitFlags{MachineGenerated: true})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	c.last = rec
	c.out.WriteText(fmt.Sprintf("Commit %s %s\n", rec.Hash, subjectOf(rec.Message)))
	observability.Emit(ctx, c.observer, observability.EventCommitDone, observability.LevelInfo, "coder.commit", map[string]any{
		"hash":  rec.Hash,
		"files": len(files),
	})
	return rec, nil
}

// Undo reverts the most recent commit made by this coordinator.
func (c *Committer) Undo(ctx context.Context) error {
	if c.repo == nil {
		c.out.WriteWarning("No git repository found, nothing to undo.")
		return nil
	}
	if c.last == nil {
		c.out.WriteWarning("No automatic commit to undo in this session.")
		return nil
	}

	if err := c.repo.UndoCommit(ctx, *c.last); err != nil {
		return err
	}
	c.out.WriteText(fmt.Sprintf("Undid commit %s\n", c.last.Hash))
	c.last = nil
	return nil
}

// Status lists modified paths. Nil without a repository.
func (c *Committer) Status(ctx context.Context) ([]string, error) {
	if c.repo == nil {
		return nil, nil
	}
	return c.repo.Status(ctx)
}

// Last returns the most recent automatic commit, if any.
func (c *Committer) Last() *model.CommitRecord {
	return c.last
}

func subjectOf(message string) string {
	return strings.SplitN(message, "\n", 2)[0]
}
