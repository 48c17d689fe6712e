package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/git"
)

// ErrStatusFailed is returned when the status query fails or cannot be parsed.
var ErrStatusFailed = errors.New("git status failed")

// Options configure a Scanner.
type Options struct {
	// IgnoreFile is read relative to the scanned root. Empty disables it.
	IgnoreFile string
	// Ignore holds extra gitignore-style patterns.
	Ignore []string
	// Sniffer decides text versus binary for untracked files.
	// Nil selects ContentSniffer.
	Sniffer Sniffer
}

// Scanner enumerates and classifies the changes of a working tree.
type Scanner struct {
	runner git.Runner
	opts   Options
	logger *zap.Logger
}

// NewScanner creates a Scanner. A nil runner selects git.ExecRunner and a
// nil logger discards logs.
func NewScanner(runner git.Runner, logger *zap.Logger, opts Options) *Scanner {
	if runner == nil {
		runner = git.ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Sniffer == nil {
		opts.Sniffer = ContentSniffer{}
	}
	return &Scanner{runner: runner, opts: opts, logger: logger}
}

// Scan queries git status once and classifies every reported path.
// A failed query fails the scan; no partial snapshot is returned.
func (s *Scanner) Scan(ctx context.Context, root string) (*Snapshot, error) {
	raw, err := git.New(root, s.runner).Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatusFailed, err)
	}
	entries, err := git.ParseStatus(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatusFailed, err)
	}

	ignore, err := LoadIgnore(root, s.opts.IgnoreFile, s.opts.Ignore)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Root: root, Records: make([]Record, 0, len(entries))}
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if ignore.Match(entry.Path) {
			s.logger.Debug("path ignored", zap.String("path", entry.Path))
			continue
		}
		if seen[entry.Path] {
			s.skip(snap, entry, "duplicate status entry")
			continue
		}
		seen[entry.Path] = true

		category, reason := s.classify(root, entry)
		if category == "" {
			s.skip(snap, entry, reason)
			continue
		}

		rec := Record{Path: entry.Path, Category: category}
		if category == Renamed {
			rec.OrigPath = entry.OrigPath
		}
		snap.Records = append(snap.Records, rec)
	}

	s.logger.Debug("scan complete",
		zap.String("root", root),
		zap.Int("records", len(snap.Records)),
		zap.Int("skipped", len(snap.Skipped)))
	return snap, nil
}

// classify maps a status entry to a category. An empty category means the
// entry is skipped for the returned reason.
func (s *Scanner) classify(root string, entry git.StatusEntry) (Category, string) {
	switch {
	case entry.IsUnmerged():
		return "", "unmerged"
	case entry.IsUntracked():
		return s.sniff(root, entry.Path), ""
	case entry.X == '!':
		return "", "ignored"
	case entry.IsRenameOrCopy():
		if entry.Y == 'D' {
			return "", "renamed then deleted"
		}
		return Renamed, ""
	case entry.X == 'A' && entry.Y == 'D':
		return "", "added then deleted, nothing to commit"
	case entry.X == 'D' || entry.Y == 'D':
		return Deleted, ""
	case isContentChange(entry.X) || isContentChange(entry.Y):
		return Modified, ""
	default:
		return "", "unrecognized status"
	}
}

func (s *Scanner) sniff(root, path string) Category {
	text, err := s.opts.Sniffer.IsText(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		s.logger.Warn("content sniff failed, treating as binary",
			zap.String("path", path), zap.Error(err))
		return UntrackedBinary
	}
	if text {
		return UntrackedText
	}
	return UntrackedBinary
}

func (s *Scanner) skip(snap *Snapshot, entry git.StatusEntry, reason string) {
	s.logger.Warn("skipping path",
		zap.String("path", entry.Path),
		zap.String("marker", entry.Marker()),
		zap.String("reason", reason))
	snap.Skipped = append(snap.Skipped, SkippedPath{
		Path:   entry.Path,
		Marker: entry.Marker(),
		Reason: reason,
	})
}

func isContentChange(b byte) bool {
	return b == 'A' || b == 'M' || b == 'T'
}
