package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/autocommit/internal/committer"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/scan"
	"github.com/gorewood/autocommit/internal/unpushed"
)

// --- Scan tool ---

// ScanInput is the input for the scan tool (no parameters needed).
type ScanInput struct{}

// ScanOutput is the output for the scan tool.
type ScanOutput struct {
	Root    string             `json:"root"              jsonschema:"repository root"`
	Count   int                `json:"count"             jsonschema:"number of paths that would be committed"`
	Counts  map[string]int     `json:"counts"            jsonschema:"number of paths per category"`
	Records []scan.Record      `json:"records"           jsonschema:"changed paths in status order"`
	Skipped []scan.SkippedPath `json:"skipped,omitempty" jsonschema:"paths that will not be committed and why"`
}

func handleScan(svc *Service) mcp.ToolHandlerFor[ScanInput, ScanOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ScanInput) (*mcp.CallToolResult, ScanOutput, error) {
		snap, err := svc.Scanner.Scan(ctx, svc.Root)
		if err != nil {
			return nil, ScanOutput{}, fmt.Errorf("scanning working tree: %w", err)
		}

		counts := make(map[string]int)
		for category, n := range snap.Counts() {
			counts[string(category)] = n
		}
		out := ScanOutput{
			Root:    snap.Root,
			Count:   len(snap.Records),
			Counts:  counts,
			Records: snap.Records,
			Skipped: snap.Skipped,
		}
		if out.Records == nil {
			out.Records = []scan.Record{}
		}
		return nil, out, nil
	}
}

// --- Draft tool ---

// DraftInput is the input for the draft tool.
type DraftInput struct {
	Path string `json:"path" jsonschema:"changed path relative to the repository root (required)"`
}

// DraftOutput is the output for the draft tool.
type DraftOutput struct {
	Path      string        `json:"path"                jsonschema:"the drafted path"`
	Category  scan.Category `json:"category"            jsonschema:"change category of the path"`
	Message   string        `json:"message"             jsonschema:"commit message that would be used"`
	Generated bool          `json:"generated"           jsonschema:"whether the message came from the completion service"`
	Truncated bool          `json:"truncated,omitempty" jsonschema:"whether a multi-line completion was cut to one line"`
	Note      string        `json:"note,omitempty"      jsonschema:"why a fallback message was used"`
}

func handleDraft(svc *Service) mcp.ToolHandlerFor[DraftInput, DraftOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DraftInput) (*mcp.CallToolResult, DraftOutput, error) {
		if input.Path == "" {
			return nil, DraftOutput{}, errors.New("path is required")
		}

		snap, err := svc.Scanner.Scan(ctx, svc.Root)
		if err != nil {
			return nil, DraftOutput{}, fmt.Errorf("scanning working tree: %w", err)
		}
		rec, ok := snap.Find(input.Path)
		if !ok {
			return nil, DraftOutput{}, fmt.Errorf("%s has no pending change", input.Path)
		}

		rec = svc.Fetcher.Fetch(ctx, svc.Root, rec)
		msg := svc.Drafter.Generate(ctx, rec)

		out := DraftOutput{
			Path:      msg.Path,
			Category:  msg.Category,
			Message:   msg.Text,
			Generated: msg.Generated,
			Truncated: msg.Truncated,
		}
		if msg.Err != nil {
			out.Note = msg.Err.Error()
		}
		return nil, out, nil
	}
}

// --- Commit tool ---

// CommitInput is the input for the commit_all tool.
type CommitInput struct {
	DryRun bool  `json:"dry_run,omitempty" jsonschema:"generate messages without committing"`
	Push   *bool `json:"push,omitempty"    jsonschema:"push after committing; defaults to the auto_sync setting"`
}

// CommitOutput is the output for the commit_all tool.
type CommitOutput struct {
	RunID      string                   `json:"run_id"               jsonschema:"identifier of this run"`
	DryRun     bool                     `json:"dry_run,omitempty"    jsonschema:"whether this was a dry run"`
	Committed  int                      `json:"committed"            jsonschema:"number of successful commits"`
	Failed     int                      `json:"failed"               jsonschema:"number of failed commits"`
	Generated  int                      `json:"generated"            jsonschema:"number of messages from the completion service"`
	Results    []committer.CommitResult `json:"results"              jsonschema:"per-path outcomes in commit order"`
	Skipped    []scan.SkippedPath       `json:"skipped,omitempty"    jsonschema:"paths that were not committed and why"`
	Pushed     bool                     `json:"pushed"               jsonschema:"whether the branch was pushed"`
	PushNote   string                   `json:"push_note,omitempty"  jsonschema:"why no push happened or what it reported"`
	PushError  string                   `json:"push_error,omitempty" jsonschema:"push failure"`
	DurationMS int64                    `json:"duration_ms"          jsonschema:"run duration in milliseconds"`
}

func handleCommitAll(svc *Service) mcp.ToolHandlerFor[CommitInput, CommitOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, CommitOutput, error) {
		autoSync := svc.AutoSync
		if input.Push != nil {
			autoSync = *input.Push
		}

		report, err := svc.Orchestrator.Run(ctx, committer.Options{
			Root:     svc.Root,
			AutoSync: autoSync,
			DryRun:   input.DryRun,
		})
		if err != nil {
			return nil, CommitOutput{}, err
		}
		return nil, commitOutput(report), nil
	}
}

func commitOutput(report *committer.Report) CommitOutput {
	out := CommitOutput{
		RunID:      report.RunID,
		DryRun:     report.DryRun,
		Committed:  report.Committed(),
		Failed:     report.Failed(),
		Generated:  report.Generated(),
		Results:    report.Results,
		Skipped:    report.Skipped,
		Pushed:     report.Pushed,
		PushNote:   report.PushNote,
		DurationMS: report.Duration.Milliseconds(),
	}
	if report.PushErr != nil {
		out.PushError = report.PushErr.Error()
	}
	return out
}

// --- Unpushed tool ---

// UnpushedInput is the input for the unpushed tool.
type UnpushedInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"re-read the list instead of using the cached one"`
}

// UnpushedOutput is the output for the unpushed tool.
type UnpushedOutput struct {
	Count   int              `json:"count"   jsonschema:"number of unpushed commits"`
	Commits []unpushed.Entry `json:"commits" jsonschema:"unpushed commits, newest first"`
}

func handleUnpushed(svc *Service) mcp.ToolHandlerFor[UnpushedInput, UnpushedOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UnpushedInput) (*mcp.CallToolResult, UnpushedOutput, error) {
		entries, err := svc.Unpushed.Entries()
		if input.Refresh || err != nil || entries == nil {
			entries, err = svc.Unpushed.Reload(ctx)
		}
		if err != nil {
			return nil, UnpushedOutput{}, fmt.Errorf("listing unpushed commits: %w", err)
		}
		return nil, UnpushedOutput{Count: len(entries), Commits: entries}, nil
	}
}

// --- Status tool ---

// StatusInput is the input for the status tool (no parameters needed).
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Root     string         `json:"root"             jsonschema:"repository root"`
	Branch   string         `json:"branch,omitempty" jsonschema:"current branch"`
	State    string         `json:"state"            jsonschema:"pipeline phase (idle while no run is active)"`
	Busy     bool           `json:"busy"             jsonschema:"whether a commit run is in progress"`
	AutoSync bool           `json:"auto_sync"        jsonschema:"whether commit_all pushes by default"`
	Pending  int            `json:"pending"          jsonschema:"number of paths that would be committed"`
	Counts   map[string]int `json:"counts"           jsonschema:"pending paths per category"`
	Skipped  int            `json:"skipped"          jsonschema:"number of paths that will be skipped"`
	Checked  string         `json:"checked"          jsonschema:"time of this status check"`
}

func handleStatus(svc *Service) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		state := svc.Orchestrator.State()
		out := StatusOutput{
			Root:     svc.Root,
			State:    state.String(),
			Busy:     state != committer.Idle,
			AutoSync: svc.AutoSync,
			Counts:   map[string]int{},
			Checked:  time.Now().UTC().Format(time.RFC3339),
		}

		if branch, err := git.New(svc.Root, svc.Runner).CurrentBranch(ctx); err == nil {
			out.Branch = branch
		}

		snap, err := svc.Scanner.Scan(ctx, svc.Root)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("scanning working tree: %w", err)
		}
		for category, n := range snap.Counts() {
			out.Counts[string(category)] = n
		}
		out.Pending = len(snap.Records)
		out.Skipped = len(snap.Skipped)
		return nil, out, nil
	}
}
