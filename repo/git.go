// Package repo commits assistant edits with the git command line.
package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"typeraider/model"
)

// ErrNotRepository is returned by Open outside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// ErrRepository matches every failed git invocation and every refused
// repository operation.
var ErrRepository = errors.New("git")

const attribution = " (typeraider)"

// Error is a failed git invocation.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrRepository }

func refuse(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRepository}, args...)...)
}

// Git runs git in a working directory inside a repository.
type Git struct {
	dir      string
	toplevel string
	logger   *zap.Logger
}

// Open returns the repository containing dir.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Git, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("%w: git not installed", ErrNotRepository)
	}

	g := &Git{dir: dir, logger: logger.Named("git")}
	top, err := g.run(ctx, nil, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	g.toplevel = strings.TrimSpace(top)
	return g, nil
}

// Root is the top level of the work tree.
func (g *Git) Root() string { return g.toplevel }

// Commit stages files and commits exactly those paths. Relative paths are
// resolved against the working directory. It returns nil, nil when the
// files carry no change.
func (g *Git) Commit(ctx context.Context, files []string, message string, flags model.CommitFlags) (*model.CommitRecord, error) {
	if len(files) == 0 {
		return nil, nil
	}

	if _, err := g.run(ctx, nil, append([]string{"add", "--"}, files...)...); err != nil {
		return nil, err
	}
	if !g.hasStaged(ctx, files) {
		return nil, nil
	}

	var env []string
	if flags.MachineGenerated {
		env = g.attributionEnv(ctx)
	}
	args := append([]string{"commit", "-m", message, "--"}, files...)
	if _, err := g.run(ctx, env, args...); err != nil {
		return nil, err
	}

	hash, err := g.head(ctx)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("committed", zap.String("hash", hash), zap.Strings("files", files))
	return &model.CommitRecord{Hash: hash, Message: message}, nil
}

// UndoCommit drops rec, which must be HEAD, and restores the files it
// touched to their previous content. Files added by the commit are left in
// place, untracked.
func (g *Git) UndoCommit(ctx context.Context, rec model.CommitRecord) error {
	head, err := g.head(ctx)
	if err != nil {
		return err
	}
	if !sameCommit(head, rec.Hash) {
		return refuse("HEAD is %s, not %s; refusing to undo", head, rec.Hash)
	}
	if _, err := g.run(ctx, nil, "rev-parse", "--verify", "--quiet", "HEAD~1"); err != nil {
		return refuse("commit %s has no parent; refusing to undo", rec.Hash)
	}

	out, err := g.run(ctx, nil, "diff-tree", "--no-commit-id", "--name-only", "-r", "--relative", "HEAD")
	if err != nil {
		return err
	}
	files := lines(out)
	if len(files) == 0 {
		return refuse("commit %s touches no files under %s", rec.Hash, g.dir)
	}

	if dirty := g.dirty(ctx, files); len(dirty) > 0 {
		return refuse("%s changed since commit %s; commit or stash first", strings.Join(dirty, ", "), rec.Hash)
	}

	out, err = g.run(ctx, nil, append([]string{"ls-tree", "--name-only", "HEAD~1", "--"}, files...)...)
	if err != nil {
		return err
	}
	existed := lines(out)

	if _, err := g.run(ctx, nil, "reset", "--soft", "HEAD~1"); err != nil {
		return err
	}
	if _, err := g.run(ctx, nil, append([]string{"reset", "-q", "--"}, files...)...); err != nil {
		return err
	}
	if len(existed) > 0 {
		if _, err := g.run(ctx, nil, append([]string{"checkout", "--"}, existed...)...); err != nil {
			return err
		}
	}
	g.logger.Debug("undid commit", zap.String("hash", rec.Hash), zap.Strings("files", files))
	return nil
}

// Status lists modified, staged and untracked paths relative to the top
// level of the work tree.
func (g *Git) Status(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, nil, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range lines(out) {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if _, to, ok := strings.Cut(path, " -> "); ok {
			path = to
		}
		paths = append(paths, strings.Trim(path, `"`))
	}
	return paths, nil
}

func (g *Git) head(ctx context.Context) (string, error) {
	out, err := g.run(ctx, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) hasStaged(ctx context.Context, files []string) bool {
	_, err := g.run(ctx, nil, append([]string{"diff", "--cached", "--quiet", "--"}, files...)...)
	return err != nil
}

func (g *Git) dirty(ctx context.Context, files []string) []string {
	out, err := g.run(ctx, nil, append([]string{"diff", "--name-only", "--relative", "HEAD", "--"}, files...)...)
	if err != nil {
		return nil
	}
	return lines(out)
}

// attributionEnv marks author and committer as the assistant acting for the
// configured user.
func (g *Git) attributionEnv(ctx context.Context) []string {
	name, err := g.run(ctx, nil, "config", "user.name")
	name = strings.TrimSpace(name)
	if err != nil || name == "" {
		name = "user"
	}
	name += attribution
	return []string{"GIT_AUTHOR_NAME=" + name, "GIT_COMMITTER_NAME=" + name}
}

func (g *Git) run(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return stdout.String(), &Error{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

func sameCommit(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			out = append(out, l)
		}
	}
	return out
}
