package commitmsg

import (
	"regexp"
	"strings"
)

// Types are the accepted Conventional Commit type prefixes.
var Types = []string{"feat", "fix", "chore", "docs", "style", "refactor", "perf", "test", "build", "ci", "revert"}

var (
	conventionalPrefix = regexp.MustCompile(`(?i)^(` + strings.Join(Types, "|") + `)(\([^()\s]+\))?!?: \S`)
	embeddedPrefix     = regexp.MustCompile(`(?i)\b(` + strings.Join(Types, "|") + `)(\([^()\s]+\))?!?: \S`)
)

// HasConventionalPrefix reports whether msg starts with "type:", "type(scope):"
// or "type!:" followed by a description.
func HasConventionalPrefix(msg string) bool {
	return conventionalPrefix.MatchString(msg)
}

// preamblePatterns are chatter models put before the answer, matched as a
// case-insensitive line prefix.
var preamblePatterns = []string{
	"here is",
	"here's",
	"sure,",
	"sure!",
	"certainly",
	"of course",
	"okay,",
	"i'll ",
	"i would ",
	"based on",
	"looking at",
	"the diff shows",
	"this diff",
	"a possible commit message",
	"suggested commit message",
}

// signoffPatterns are chatter models put after the answer.
var signoffPatterns = []string{
	"this message",
	"this commit message",
	"let me know",
	"hope this helps",
	"feel free to",
	"would you like",
}

// labelPrefixes precede the message on the same line.
var labelPrefixes = []string{"commit message:", "commit:", "message:", "subject:"}

// Normalize reduces raw model output to a single-line commit subject.
// Chatter before and after the answer, code fences, label prefixes and
// wrapping quotes are removed. truncated reports that more than one
// meaningful line remained and all but the first were dropped.
func Normalize(raw string) (msg string, truncated bool) {
	lines := meaningfulLines(raw)
	lines = trimLeading(lines, preamblePatterns, 3)
	lines = trimTrailing(lines, signoffPatterns)
	if len(lines) == 0 {
		return "", false
	}

	msg = stripLabel(lines[0])
	msg = stripQuotes(msg)
	if matchesAnyPrefix(msg, preamblePatterns) {
		// "Here is the message: feat: x" on a single line.
		if loc := embeddedPrefix.FindStringIndex(msg); loc != nil {
			msg = strings.Trim(strings.TrimSpace(msg[loc[0]:]), "\"'`")
		}
	}
	return strings.Join(strings.Fields(msg), " "), len(lines) > 1
}

// meaningfulLines returns trimmed lines that are neither blank nor code fences.
func meaningfulLines(raw string) []string {
	var lines []string
	for line := range strings.SplitSeq(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// trimLeading drops at most limit leading lines matching patterns. A line is
// kept when it is the only one left, so a lone answer is never discarded.
func trimLeading(lines []string, patterns []string, limit int) []string {
	for dropped := 0; dropped < limit && len(lines) > 1 && matchesAnyPrefix(lines[0], patterns); dropped++ {
		lines = lines[1:]
	}
	return lines
}

func trimTrailing(lines []string, patterns []string) []string {
	for len(lines) > 1 && matchesAnyPrefix(lines[len(lines)-1], patterns) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func stripLabel(line string) string {
	lower := strings.ToLower(line)
	for _, label := range labelPrefixes {
		if strings.HasPrefix(lower, label) {
			return strings.TrimSpace(line[len(label):])
		}
	}
	return line
}

func stripQuotes(s string) string {
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'' && first != '`') {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func matchesAnyPrefix(line string, patterns []string) bool {
	lower := strings.ToLower(line)
	for _, p := range patterns {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
