package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/scan"
)

// statusResult holds the data for status output.
type statusResult struct {
	Repo     string         `json:"repo"`
	Root     string         `json:"root"`
	Branch   string         `json:"branch"`
	Pending  int            `json:"pending"`
	Counts   map[string]int `json:"counts"`
	Skipped  int            `json:"skipped"`
	Unpushed int            `json:"unpushed"`
	AutoSync bool           `json:"auto_sync"`
	Provider string         `json:"provider,omitempty"`
	Model    string         `json:"model,omitempty"`
}

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending changes and unpushed commits",
		Long: `Show the repository, branch, how many paths a commit run would handle,
and how many local commits are waiting to be pushed.

Examples:
  autocommit status
  autocommit status --json`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	pipe, err := newPipeline(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	result, err := gatherStatus(cmd, pipe)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(result)
	}
	printHumanStatus(printer, result)
	return nil
}

// gatherStatus collects all status information.
func gatherStatus(cmd *cobra.Command, pipe *pipeline) (*statusResult, error) {
	ctx := cmd.Context()

	branch, err := git.New(pipe.root, pipe.runner).CurrentBranch(ctx)
	if err != nil {
		branch = "" // no commits yet
	}

	snap, err := pipe.scanner.Scan(ctx, pipe.root)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("scanning working tree failed: "+err.Error(), err)
	}

	entries, err := pipe.lister.List(ctx, pipe.root)
	if err != nil {
		return nil, err
	}

	result := &statusResult{
		Repo:     filepath.Base(pipe.root),
		Root:     pipe.root,
		Branch:   branch,
		Pending:  len(snap.Records),
		Counts:   map[string]int{},
		Skipped:  len(snap.Skipped),
		Unpushed: len(entries),
		AutoSync: pipe.cfg.AutoSync,
		Provider: pipe.cfg.Provider,
		Model:    pipe.cfg.Model,
	}
	for category, n := range snap.Counts() {
		result.Counts[string(category)] = n
	}
	return result, nil
}

// printHumanStatus prints the status in human-readable form.
func printHumanStatus(printer *output.Printer, result *statusResult) {
	printer.Section("Repository")
	printer.KeyValue("Repo", result.Repo)
	printer.KeyValue("Root", result.Root)
	if result.Branch != "" {
		printer.KeyValue("Branch", result.Branch)
	}

	printer.Section("Pending")
	printer.KeyValue("Paths", strconv.Itoa(result.Pending))
	for _, category := range []scan.Category{scan.Modified, scan.UntrackedText, scan.UntrackedBinary, scan.Deleted, scan.Renamed} {
		if n := result.Counts[string(category)]; n > 0 {
			printer.KeyValue("  "+string(category), strconv.Itoa(n))
		}
	}
	if result.Skipped > 0 {
		printer.KeyValue("Skipped", strconv.Itoa(result.Skipped))
	}

	printer.Section("Sync")
	printer.KeyValue("Unpushed", strconv.Itoa(result.Unpushed))
	printer.KeyValue("Auto-sync", fmt.Sprintf("%t", result.AutoSync))
}
