// Package git runs git for autocommit.
package git

import (
	"context"
	"errors"
	"strings"

	"github.com/gorewood/autocommit/internal/output"
)

// ErrNotRepository is returned when a directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Client runs git commands in one repository directory.
type Client struct {
	dir    string
	runner Runner
}

// New creates a Client for dir. A nil runner selects ExecRunner.
func New(dir string, runner Runner) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Client{dir: dir, runner: runner}
}

// Dir returns the directory the client runs in.
func (c *Client) Dir() string {
	return c.dir
}

// Run executes git with args and returns trimmed stdout.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	res, err := c.runner.Run(ctx, c.dir, "git", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// RunRaw executes git with args and returns the untrimmed Result.
// Use it where whitespace or NUL bytes in stdout are significant.
func (c *Client) RunRaw(ctx context.Context, args ...string) (Result, error) {
	return c.runner.Run(ctx, c.dir, "git", args...)
}

// IsRepo reports whether the directory is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// RepoRoot returns the top-level directory of the work tree.
func (c *Client) RepoRoot(ctx context.Context) (string, error) {
	root, err := c.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", output.NewSystemErrorWithCause("no git repository found", errors.Join(ErrNotRepository, err))
	}
	return root, nil
}

// GitDir returns the absolute path of the repository's git directory.
func (c *Client) GitDir(ctx context.Context) (string, error) {
	dir, err := c.Run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to locate git directory", errors.Join(ErrNotRepository, err))
	}
	return dir, nil
}

// CurrentBranch returns the checked-out branch name ("HEAD" when detached).
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := c.Run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to get current branch", err)
	}
	return branch, nil
}

// HasHEAD reports whether the repository has at least one commit.
func (c *Client) HasHEAD(ctx context.Context) bool {
	_, err := c.Run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// Status returns raw `git status --porcelain=v1 -z` output including every
// untracked file. Parse it with ParseStatus.
func (c *Client) Status(ctx context.Context) (string, error) {
	res, err := c.RunRaw(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// DiffHEAD returns the diff of path between HEAD and the working tree,
// covering both staged and unstaged changes.
func (c *Client) DiffHEAD(ctx context.Context, path string) (string, error) {
	res, err := c.RunRaw(ctx, "diff", "--no-color", "--no-ext-diff", "HEAD", "--", path)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// DiffCached returns the staged diff of path. Used before the first commit,
// when there is no HEAD to diff against.
func (c *Client) DiffCached(ctx context.Context, path string) (string, error) {
	res, err := c.RunRaw(ctx, "diff", "--no-color", "--no-ext-diff", "--cached", "--", path)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Add stages paths.
func (c *Client) Add(ctx context.Context, paths ...string) error {
	_, err := c.Run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// AddAll stages paths including removals, as needed for renames.
func (c *Client) AddAll(ctx context.Context, paths ...string) error {
	_, err := c.Run(ctx, append([]string{"add", "-A", "--"}, paths...)...)
	return err
}

// Remove stages the removal of paths without touching the working tree.
// Paths that are not in the index are ignored.
func (c *Client) Remove(ctx context.Context, paths ...string) error {
	_, err := c.Run(ctx, append([]string{"rm", "--cached", "--quiet", "--ignore-unmatch", "--"}, paths...)...)
	return err
}

// Commit records a commit containing only paths, with message passed as a
// single argument.
func (c *Client) Commit(ctx context.Context, message string, paths ...string) error {
	args := append([]string{"commit", "--quiet", "-m", message, "--"}, paths...)
	_, err := c.Run(ctx, args...)
	return err
}

// Push pushes the current branch to its upstream. The Result is returned
// alongside any error so callers can classify the output.
func (c *Client) Push(ctx context.Context) (Result, error) {
	return c.RunRaw(ctx, "push")
}
