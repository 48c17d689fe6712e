// Package gittest provides a scripted git.Runner and real-repository
// helpers for tests.
package gittest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
)

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as "name arg1 arg2".
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is returned for invocations whose argv starts with a prefix.
type Response struct {
	Stdout string
	Stderr string
	Err    error
}

// Fail returns a Response that fails like a non-zero git exit.
func Fail(stderr string) Response {
	return Response{Stderr: stderr, Err: output.NewSystemError("git failed: " + stderr)}
}

type rule struct {
	prefix string
	resp   Response
}

// Runner is a git.Runner that answers from rules and records every call.
// Rules are matched against "name arg1 arg2 ..." by prefix; the most
// recently added matching rule wins. Unmatched calls succeed with no output.
type Runner struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

var _ git.Runner = (*Runner)(nil)

// On registers a response for calls whose command line starts with prefix.
func (r *Runner) On(prefix string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, resp: resp})
	return r
}

// Run implements git.Runner.
func (r *Runner) Run(_ context.Context, dir string, name string, args ...string) (git.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.calls = append(r.calls, call)

	line := call.Line()
	for i := len(r.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.rules[i].prefix) {
			resp := r.rules[i].resp
			res := git.Result{Stdout: resp.Stdout, Stderr: resp.Stderr}
			if resp.Err != nil {
				res.ExitCode = 1
			}
			return res, resp.Err
		}
	}
	return git.Result{}, nil
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Lines returns the recorded calls whose command line starts with prefix.
func (r *Runner) Lines(prefix string) []string {
	var lines []string
	for _, call := range r.Calls() {
		if line := call.Line(); strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	return lines
}

// StatusZ joins porcelain records into `git status -z` output.
func StatusZ(records ...string) string {
	if len(records) == 0 {
		return ""
	}
	return strings.Join(records, "\x00") + "\x00"
}

// InitRepo creates a git repository in a temp directory with a committer
// identity configured. The test is skipped when git is not installed.
func InitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	Git(t, dir, "init", "--quiet", "--initial-branch=main")
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

// Git runs a git command in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to rel under dir, creating parent directories.
func WriteFile(t *testing.T, dir, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}
