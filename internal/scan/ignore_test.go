package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIgnore(t *testing.T) {
	root := t.TempDir()
	content := "# comment\n\nvendor/\n*.tmp\n!keep.tmp\n/root-only.txt\n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ig, err := LoadIgnore(root, DefaultIgnoreFile, []string{"secret/**"})
	if err != nil {
		t.Fatalf("LoadIgnore() error = %v", err)
	}
	if ig.Len() != 5 {
		t.Errorf("Len() = %d, want 5", ig.Len())
	}

	tests := []struct {
		path string
		want bool
	}{
		{"vendor/lib/x.go", true},
		{"a.tmp", true},
		{"dir/b.tmp", true},
		{"keep.tmp", false},
		{"root-only.txt", true},
		{"sub/root-only.txt", false},
		{"secret/key.pem", true},
		{"main.go", false},
	}
	for _, testCase := range tests {
		t.Run(testCase.path, func(t *testing.T) {
			if got := ig.Match(testCase.path); got != testCase.want {
				t.Errorf("Match(%q) = %v, want %v", testCase.path, got, testCase.want)
			}
		})
	}
}

func TestLoadIgnore_MissingFile(t *testing.T) {
	ig, err := LoadIgnore(t.TempDir(), DefaultIgnoreFile, nil)
	if err != nil {
		t.Fatalf("LoadIgnore() error = %v", err)
	}
	if ig.Len() != 0 || ig.Match("anything") {
		t.Error("empty ignore should match nothing")
	}
}

func TestIgnore_Nil(t *testing.T) {
	var ig *Ignore
	if ig.Match("a") || ig.Len() != 0 {
		t.Error("nil Ignore should match nothing")
	}
}
