package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/scan"
)

// newScanCmd creates the scan command.
func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Show how each changed path would be committed",
		Long: `Classify every changed path without generating messages or committing.

Categories:
  untracked-text     new text file, message generated from its content
  untracked-binary   new binary file, fixed "add" message
  modified           changed tracked file, message generated from its diff
  deleted            removed file, fixed "remove" message
  renamed            renamed file, fixed "rename" message

Conflicted and unrecognized entries are listed as skipped.

Examples:
  autocommit scan           # Table of pending paths
  autocommit scan --json    # Snapshot as JSON`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
}

// runScan executes the scan command.
func runScan(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	pipe, err := newPipeline(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	snap, err := pipe.scanner.Scan(cmd.Context(), pipe.root)
	if err != nil {
		printer.Error(err)
		return err
	}
	if snap.Records == nil {
		snap.Records = []scan.Record{}
	}

	if printer.IsJSON() {
		return printer.WriteJSON(snap)
	}

	if snap.Empty() {
		printer.Println("Working tree clean")
	} else {
		rows := make([][]string, 0, len(snap.Records))
		for _, rec := range snap.Records {
			path := rec.Path
			if rec.OrigPath != "" {
				path = rec.OrigPath + " -> " + rec.Path
			}
			rows = append(rows, []string{string(rec.Category), path})
		}
		printer.Table([]string{"CATEGORY", "PATH"}, rows)
		printer.Println(fmt.Sprintf("\n%d path(s) to commit", len(snap.Records)))
	}
	for _, skip := range snap.Skipped {
		printer.Warn("skipped %s (%s): %s", skip.Path, skip.Marker, skip.Reason)
	}
	return nil
}
