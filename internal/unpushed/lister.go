// Package unpushed lists the commits on the current branch that have not
// reached a remote, and signals when that list should be re-read.
package unpushed

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/git"
)

// Entry is one local-only commit.
type Entry struct {
	Hash    string   `json:"hash"`
	Summary string   `json:"summary"`
	Files   []string `json:"files"`
}

// Lister reads local-only commits. It never modifies the repository.
type Lister struct {
	runner git.Runner
	logger *zap.Logger
}

// NewLister creates a Lister. A nil runner selects git.ExecRunner.
func NewLister(runner git.Runner, logger *zap.Logger) *Lister {
	if runner == nil {
		runner = git.ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{runner: runner, logger: logger}
}

// List returns local-only commits of root's current branch, newest first.
// A root outside any repository yields an empty list and no error.
func (l *Lister) List(ctx context.Context, root string) ([]Entry, error) {
	if !isRepository(root, l.logger) {
		return []Entry{}, nil
	}

	client := git.New(root, l.runner)
	hashes, err := client.LocalOnlyHashes(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(hashes))
	for _, hash := range hashes {
		subject, err := client.CommitSubject(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("listing unpushed commits: %w", err)
		}
		files, err := client.CommitFiles(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("listing unpushed commits: %w", err)
		}
		if files == nil {
			files = []string{}
		}
		entries = append(entries, Entry{Hash: hash, Summary: subject, Files: files})
	}
	return entries, nil
}

// isRepository detects a work tree at or above root. Repositories go-git
// cannot open for other reasons, such as unsupported extensions, are left
// to the git binary.
func isRepository(root string, logger *zap.Logger) bool {
	_, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		return true
	}
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return false
	}
	logger.Debug("go-git could not open repository, deferring to git", zap.String("root", root), zap.Error(err))
	return true
}
