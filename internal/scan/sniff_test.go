package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContentSniffer(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{name: "ascii", content: []byte("package main\n"), want: true},
		{name: "utf8", content: []byte("héllo wörld\n"), want: true},
		{name: "empty", content: nil, want: true},
		{name: "nul byte", content: []byte{0x89, 'P', 'N', 'G', 0x00, 0x1a}, want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(dir, testCase.name)
			if err := os.WriteFile(path, testCase.content, 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := ContentSniffer{}.IsText(path)
			if err != nil {
				t.Fatalf("IsText() error = %v", err)
			}
			if got != testCase.want {
				t.Errorf("IsText() = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestContentSniffer_Missing(t *testing.T) {
	if _, err := (ContentSniffer{}).IsText(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("IsText() on a missing file should fail")
	}
}
