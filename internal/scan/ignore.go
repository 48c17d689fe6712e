package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultIgnoreFile is the project ignore file consulted before enumeration.
const DefaultIgnoreFile = ".gitignore"

// Ignore excludes paths before classification.
type Ignore struct {
	matcher gitignore.Matcher
	count   int
}

// LoadIgnore builds an Ignore from root/ignoreFile plus extra patterns.
// A missing ignore file is not an error. An empty ignoreFile reads only extra.
func LoadIgnore(root, ignoreFile string, extra []string) (*Ignore, error) {
	var patterns []gitignore.Pattern

	if ignoreFile != "" {
		filePatterns, err := readPatterns(filepath.Join(root, ignoreFile))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}

	for _, line := range extra {
		if p, ok := parsePattern(line); ok {
			patterns = append(patterns, p)
		}
	}

	return &Ignore{matcher: gitignore.NewMatcher(patterns), count: len(patterns)}, nil
}

// Match reports whether the slash-separated relative path is excluded.
// A path is also excluded when one of its parent directories matches.
func (ig *Ignore) Match(path string) bool {
	if ig == nil || ig.count == 0 {
		return false
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i := 1; i < len(parts); i++ {
		if ig.matcher.Match(parts[:i], true) {
			return true
		}
	}
	return ig.matcher.Match(parts, false)
}

// Len returns the number of loaded patterns.
func (ig *Ignore) Len() int {
	if ig == nil {
		return 0
	}
	return ig.count
}

func readPatterns(path string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parsePattern(scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}
	return patterns, nil
}

func parsePattern(line string) (gitignore.Pattern, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return gitignore.ParsePattern(line, nil), true
}
