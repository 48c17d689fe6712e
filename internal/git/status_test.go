package git_test

import (
	"testing"

	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/git/gittest"
)

func TestParseStatus(t *testing.T) {
	raw := gittest.StatusZ(
		" M a.py",
		"?? assets/logo.png",
		" D old.txt",
		"R  new name.go",
		"old name.go",
		"UU conflict.c",
	)

	entries, err := git.ParseStatus(raw)
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}

	want := []git.StatusEntry{
		{X: ' ', Y: 'M', Path: "a.py"},
		{X: '?', Y: '?', Path: "assets/logo.png"},
		{X: ' ', Y: 'D', Path: "old.txt"},
		{X: 'R', Y: ' ', Path: "new name.go", OrigPath: "old name.go"},
		{X: 'U', Y: 'U', Path: "conflict.c"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseStatus_Empty(t *testing.T) {
	entries, err := git.ParseStatus("")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want none", entries)
	}
}

func TestParseStatus_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"too short", "M\x00"},
		{"missing separator", "MMfile\x00"},
		{"rename without origin", "R  new.go\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := git.ParseStatus(tt.raw); err == nil {
				t.Error("ParseStatus() expected error")
			}
		})
	}
}

func TestStatusEntry_Predicates(t *testing.T) {
	tests := []struct {
		marker    string
		untracked bool
		unmerged  bool
		rename    bool
	}{
		{"??", true, false, false},
		{" M", false, false, false},
		{"UU", false, true, false},
		{"AA", false, true, false},
		{"DD", false, true, false},
		{"AU", false, true, false},
		{"R ", false, false, true},
		{"C ", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			e := git.StatusEntry{X: tt.marker[0], Y: tt.marker[1], Path: "f"}
			if e.Marker() != tt.marker {
				t.Errorf("Marker() = %q, want %q", e.Marker(), tt.marker)
			}
			if e.IsUntracked() != tt.untracked {
				t.Errorf("IsUntracked() = %v", e.IsUntracked())
			}
			if e.IsUnmerged() != tt.unmerged {
				t.Errorf("IsUnmerged() = %v", e.IsUnmerged())
			}
			if e.IsRenameOrCopy() != tt.rename {
				t.Errorf("IsRenameOrCopy() = %v", e.IsRenameOrCopy())
			}
		})
	}
}
