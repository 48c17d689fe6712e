package committer

import (
	"time"

	"github.com/gorewood/autocommit/internal/scan"
)

// CommitResult is the outcome of one record's commit step.
type CommitResult struct {
	Path      string        `json:"path"`
	OrigPath  string        `json:"orig_path,omitempty"`
	Category  scan.Category `json:"category"`
	Message   string        `json:"message"`
	Generated bool          `json:"generated"`
	Truncated bool          `json:"truncated,omitempty"`
	Succeeded bool          `json:"succeeded"`

	// Note explains a fallback message; the commit itself may still succeed.
	Note  string `json:"note,omitempty"`
	Error string `json:"error,omitempty"`

	err error
}

// Err returns the commit failure, if any.
func (r CommitResult) Err() error {
	return r.err
}

// Report summarises one run.
type Report struct {
	RunID    string             `json:"run_id"`
	Root     string             `json:"root"`
	DryRun   bool               `json:"dry_run,omitempty"`
	Results  []CommitResult     `json:"results"`
	Skipped  []scan.SkippedPath `json:"skipped,omitempty"`
	Pushed   bool               `json:"pushed"`
	PushNote string             `json:"push_note,omitempty"`
	PushErr  error              `json:"-"`
	Started  time.Time          `json:"started"`
	Duration time.Duration      `json:"duration"`
}

// Committed counts successful commits.
func (r *Report) Committed() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded {
			n++
		}
	}
	return n
}

// Failed counts failed commits. Planned results of a dry run are not failures.
func (r *Report) Failed() int {
	if r.DryRun {
		return 0
	}
	return len(r.Results) - r.Committed()
}

// Generated counts messages that came from the completion service.
func (r *Report) Generated() int {
	n := 0
	for _, res := range r.Results {
		if res.Generated {
			n++
		}
	}
	return n
}
