// Package scan enumerates a dirty working tree and classifies each path.
package scan

// Category is the change category of one path.
type Category string

// Change categories.
const (
	UntrackedText   Category = "untracked-text"
	UntrackedBinary Category = "untracked-binary"
	Modified        Category = "modified"
	Deleted         Category = "deleted"
	Renamed         Category = "renamed"
)

// Generated reports whether messages for this category come from the
// completion service. Binary, deleted and renamed paths use fixed messages.
func (c Category) Generated() bool {
	return c == Modified || c == UntrackedText
}

// Record is one classified path.
type Record struct {
	Path     string   `json:"path"`
	Category Category `json:"category"`
	// OrigPath is the source of a rename or copy.
	OrigPath string `json:"orig_path,omitempty"`
	// Payload is the diff (Modified) or a bounded content prefix
	// (UntrackedText). It stays empty for every other category.
	Payload string `json:"-"`
	// PayloadErr records why the payload could not be fetched.
	PayloadErr error `json:"-"`
}

// Paths returns every path the record's commit must include.
func (r Record) Paths() []string {
	if r.OrigPath != "" {
		return []string{r.OrigPath, r.Path}
	}
	return []string{r.Path}
}

// SkippedPath is a status entry the scanner does not commit.
type SkippedPath struct {
	Path   string `json:"path"`
	Marker string `json:"marker"`
	Reason string `json:"reason"`
}

// Snapshot is one point-in-time view of the working tree, in status order.
type Snapshot struct {
	Root    string        `json:"root"`
	Records []Record      `json:"records"`
	Skipped []SkippedPath `json:"skipped,omitempty"`
}

// Empty reports whether there is nothing to commit.
func (s *Snapshot) Empty() bool {
	return len(s.Records) == 0
}

// Counts returns the number of records per category.
func (s *Snapshot) Counts() map[Category]int {
	counts := make(map[Category]int)
	for _, rec := range s.Records {
		counts[rec.Category]++
	}
	return counts
}

// Find returns the record for path, matching either side of a rename.
func (s *Snapshot) Find(path string) (Record, bool) {
	for _, rec := range s.Records {
		if rec.Path == path || (rec.OrigPath != "" && rec.OrigPath == path) {
			return rec, true
		}
	}
	return Record{}, false
}
