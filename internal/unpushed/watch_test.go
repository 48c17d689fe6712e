package unpushed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelevant(t *testing.T) {
	gitDir := filepath.Join("repo", ".git")
	tests := []struct {
		name string
		want bool
	}{
		{"HEAD", true},
		{"packed-refs", true},
		{"refs/heads/main", true},
		{"refs/remotes/origin/main", true},
		{"refs/heads/main.lock", false},
		{"index", false},
		{"objects/ab/cdef", false},
		{"COMMIT_EDITMSG", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(gitDir, filepath.Join(gitDir, filepath.FromSlash(tt.name))); got != tt.want {
				t.Errorf("relevant(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestWatch_RefreshesOnRefChange(t *testing.T) {
	gitDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755); err != nil {
		t.Fatal(err)
	}

	var n Notifier
	refreshed := make(chan struct{}, 10)
	n.Subscribe(func() { refreshed <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, gitDir, &n, 20*time.Millisecond, nil) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(gitDir, "refs", "heads", "main"), []byte("abc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("no refresh after a ref changed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestWatch_MissingDir(t *testing.T) {
	var n Notifier
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), &n, 0, nil)
	if err == nil {
		t.Fatal("Watch() on a missing directory should fail")
	}
}
