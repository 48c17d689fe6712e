package git

import (
	"fmt"
	"strings"
)

// StatusEntry is one record of `git status --porcelain=v1 -z`.
// X is the index status and Y the work tree status.
type StatusEntry struct {
	X        byte
	Y        byte
	Path     string
	OrigPath string // source path of a rename or copy
}

// Marker returns the two-letter status code, e.g. " M" or "??".
func (e StatusEntry) Marker() string {
	return string([]byte{e.X, e.Y})
}

// IsUntracked reports a "??" entry.
func (e StatusEntry) IsUntracked() bool {
	return e.X == '?' && e.Y == '?'
}

// IsRenameOrCopy reports an entry that carries an original path.
func (e StatusEntry) IsRenameOrCopy() bool {
	return e.X == 'R' || e.X == 'C' || e.Y == 'R' || e.Y == 'C'
}

// IsUnmerged reports a conflicted entry (DD, AU, UD, UA, DU, AA, UU).
func (e StatusEntry) IsUnmerged() bool {
	if e.X == 'U' || e.Y == 'U' {
		return true
	}
	return (e.X == 'A' && e.Y == 'A') || (e.X == 'D' && e.Y == 'D')
}

// ParseStatus parses NUL-separated porcelain v1 output.
//
// Each record is "XY PATH"; renames and copies are followed by a second
// NUL-terminated field holding the original path.
func ParseStatus(raw string) ([]StatusEntry, error) {
	fields := strings.Split(raw, "\x00")
	entries := make([]StatusEntry, 0, len(fields))

	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if field == "" {
			continue
		}
		if len(field) < 4 || field[2] != ' ' {
			return nil, fmt.Errorf("malformed status record %q", field)
		}

		entry := StatusEntry{X: field[0], Y: field[1], Path: field[3:]}
		if entry.IsRenameOrCopy() {
			if i+1 >= len(fields) || fields[i+1] == "" {
				return nil, fmt.Errorf("status record %q is missing its original path", field)
			}
			i++
			entry.OrigPath = fields[i]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
