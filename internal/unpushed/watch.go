package unpushed

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events a single git command emits.
const DefaultDebounce = 250 * time.Millisecond

// Watch refreshes n whenever HEAD, packed-refs or anything under refs/
// changes in gitDir. It blocks until ctx is done.
func Watch(ctx context.Context, gitDir string, n *Notifier, debounce time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close() //nolint:errcheck // best-effort cleanup

	// git replaces HEAD and refs by renaming lock files, so directories are
	// watched rather than the files themselves.
	if err := watcher.Add(gitDir); err != nil {
		return err
	}
	if err := addTree(watcher, filepath.Join(gitDir, "refs")); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := addTree(watcher, event.Name); err != nil {
					logger.Debug("watching new ref directory failed", zap.String("dir", event.Name), zap.Error(err))
				}
			}
			if relevant(gitDir, event.Name) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("ref watcher error", zap.Error(err))
		case <-timer.C:
			n.Refresh()
		}
	}
}

// relevant reports whether a changed path can alter the unpushed list.
func relevant(gitDir, name string) bool {
	rel, err := filepath.Rel(gitDir, name)
	if err != nil || strings.HasSuffix(rel, ".lock") {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == "HEAD" || rel == "packed-refs" || strings.HasPrefix(rel, "refs/")
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
