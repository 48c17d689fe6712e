package git

import (
	"context"
	"strings"

	"github.com/gorewood/autocommit/internal/output"
)

// HasUpstream reports whether the current branch tracks a remote branch.
func (c *Client) HasUpstream(ctx context.Context) bool {
	_, err := c.Run(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	return err == nil
}

// LocalOnlyHashes returns the commits on HEAD that the remote does not have,
// newest first. With an upstream configured the range is @{upstream}..HEAD;
// otherwise it is every commit not reachable from any remote-tracking ref.
func (c *Client) LocalOnlyHashes(ctx context.Context) ([]string, error) {
	if !c.HasHEAD(ctx) {
		return nil, nil
	}

	args := []string{"rev-list", "HEAD", "--not", "--remotes"}
	if c.HasUpstream(ctx) {
		args = []string{"rev-list", "@{upstream}..HEAD"}
	}

	out, err := c.Run(ctx, args...)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to list unpushed commits", err)
	}
	return splitLines(out), nil
}

// CommitSubject returns the first line of a commit's message.
func (c *Client) CommitSubject(ctx context.Context, hash string) (string, error) {
	out, err := c.Run(ctx, "show", "-s", "--format=%s", hash)
	if err != nil {
		return "", output.NewSystemErrorWithCause("failed to read commit "+hash, err)
	}
	return out, nil
}

// CommitFiles returns the paths a commit touched, in git's order, unquoted.
// A merge commit lists the paths changed relative to its first parent.
func (c *Client) CommitFiles(ctx context.Context, hash string) ([]string, error) {
	res, err := c.RunRaw(ctx, "show", "-m", "--first-parent", "--name-only", "-z", "--format=", hash)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to list files of commit "+hash, err)
	}
	var files []string
	for field := range strings.SplitSeq(res.Stdout, "\x00") {
		if field = strings.Trim(field, "\n"); field != "" {
			files = append(files, field)
		}
	}
	return files, nil
}

// splitLines splits trimmed output into non-empty lines.
func splitLines(out string) []string {
	var lines []string
	for line := range strings.SplitSeq(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
