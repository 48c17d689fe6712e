package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/committer"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/scan"
)

// commitJSON is the --json shape of a commit run.
type commitJSON struct {
	RunID      string                   `json:"run_id"`
	Root       string                   `json:"root"`
	DryRun     bool                     `json:"dry_run"`
	Committed  int                      `json:"committed"`
	Failed     int                      `json:"failed"`
	Generated  int                      `json:"generated"`
	Results    []committer.CommitResult `json:"results"`
	Skipped    []scan.SkippedPath       `json:"skipped"`
	Pushed     bool                     `json:"pushed"`
	PushNote   string                   `json:"push_note,omitempty"`
	PushError  string                   `json:"push_error,omitempty"`
	DurationMS int64                    `json:"duration_ms"`
}

// newCommitCmd creates the commit command.
func newCommitCmd() *cobra.Command {
	var (
		dryRunFlag     bool
		runTimeoutFlag time.Duration
	)
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit each changed file with a generated message",
		Long: `Commit every changed path in the working tree as its own commit.

Modified files and new text files get a message from the completion service.
New binary files, deletions and renames get fixed messages. Conflicted paths
are skipped and reported. With auto_sync on (or --auto-sync) the branch is
pushed once at least one commit succeeded.

Examples:
  autocommit commit                  # Commit everything
  autocommit commit --dry-run        # Show the messages without committing
  autocommit commit --auto-sync      # Commit, then push
  autocommit commit --model haiku    # Use a specific model`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommit(cmd, dryRunFlag, runTimeoutFlag)
		},
	}
	cmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "Generate messages without committing")
	cmd.Flags().DurationVar(&runTimeoutFlag, "run-timeout", defaultRunTimeout, "Abandon the run after this long (0 disables)")
	return cmd
}

// defaultRunTimeout bounds a whole commit run.
const defaultRunTimeout = 10 * time.Minute

// runCommit executes the commit command.
func runCommit(cmd *cobra.Command, dryRun bool, runTimeout time.Duration) error {
	printer := newPrinter(cmd)

	pipe, err := newPipeline(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}
	if err := pipe.withGenerator(); err != nil {
		printer.Error(err)
		return err
	}

	opts := committer.Options{
		Root:     pipe.root,
		AutoSync: pipe.cfg.AutoSync,
		DryRun:   dryRun,
	}
	if !printer.IsJSON() {
		opts.OnResult = func(res committer.CommitResult) {
			printResult(printer, res)
		}
	}

	ctx := cmd.Context()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	report, err := pipe.orchestrator(nil).Run(ctx, opts)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		if err := printer.WriteJSON(toCommitJSON(report)); err != nil {
			return err
		}
	} else {
		printCommitSummary(printer, report)
	}
	return commitExitError(report)
}

func toCommitJSON(report *committer.Report) commitJSON {
	out := commitJSON{
		RunID:      report.RunID,
		Root:       report.Root,
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
	if out.Skipped == nil {
		out.Skipped = []scan.SkippedPath{}
	}
	if report.PushErr != nil {
		out.PushError = report.PushErr.Error()
	}
	return out
}

// printResult prints one commit outcome as it happens.
func printResult(printer *output.Printer, res committer.CommitResult) {
	styles := printer.Styles()
	switch {
	case res.Succeeded:
		printer.Print("%s %s  %s\n", styles.Success.Render("✓"), res.Path, styles.Dim.Render(res.Message))
	case res.Error != "":
		printer.Print("%s %s  %s\n", styles.Error.Render("✗"), res.Path, res.Error)
	default:
		printer.Print("%s %s  %s\n", styles.Key.Render("•"), res.Path, res.Message)
	}
	if res.Note != "" {
		printer.Print("    %s\n", styles.Dim.Render("fallback: "+res.Note))
	}
}

// printCommitSummary prints skipped paths, the push outcome and totals.
func printCommitSummary(printer *output.Printer, report *committer.Report) {
	if report.DryRun {
		for _, res := range report.Results {
			printResult(printer, res)
		}
	}
	for _, skip := range report.Skipped {
		printer.Warn("skipped %s (%s): %s", skip.Path, skip.Marker, skip.Reason)
	}
	if len(report.Results) == 0 {
		printer.Println("Nothing to commit")
		return
	}

	if report.DryRun {
		printer.Println(fmt.Sprintf("\n%d commit(s) planned, %d generated", len(report.Results), report.Generated()))
		return
	}

	printer.Println(fmt.Sprintf("\n%d committed, %d failed, %d generated in %s",
		report.Committed(), report.Failed(), report.Generated(), report.Duration.Round(time.Millisecond)))
	switch {
	case report.PushErr != nil:
		printer.Warn("push failed: %v", report.PushErr)
	case report.Pushed:
		printer.Println("Pushed")
	case report.PushNote != "":
		printer.Println(report.PushNote)
	}
}

// commitExitError turns failed commits or a failed push into a system error
// after the report has been printed.
func commitExitError(report *committer.Report) error {
	if n := report.Failed(); n > 0 {
		return output.NewSystemError(fmt.Sprintf("%d of %d commits failed", n, len(report.Results)))
	}
	if report.PushErr != nil {
		return output.NewSystemErrorWithCause("push failed", report.PushErr)
	}
	return nil
}
