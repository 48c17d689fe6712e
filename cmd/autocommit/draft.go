package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/commitmsg"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/scan"
)

// newDraftCmd creates the draft command.
func newDraftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "draft <path>",
		Short: "Print the message one changed file would be committed with",
		Long: `Generate the commit message for a single changed path without committing.

The path is relative to the repository root. For a rename either the old or
the new path may be given.

Examples:
  autocommit draft main.go
  autocommit draft docs/guide.md --model sonnet
  autocommit draft main.go --json`,
		Args: cobra.ExactArgs(1),
		RunE: runDraft,
	}
}

// runDraft executes the draft command.
func runDraft(cmd *cobra.Command, args []string) error {
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
	rec, ok := snap.Find(args[0])
	if !ok {
		err := output.NewUserError(args[0] + " has no pending change. Run 'autocommit scan' to list changed paths")
		printer.Error(err)
		return err
	}

	if rec.Category.Generated() {
		if err := pipe.withGenerator(); err != nil {
			printer.Error(err)
			return err
		}
	}

	rec = pipe.fetcher.Fetch(cmd.Context(), pipe.root, rec)
	msg := draftMessage(cmd, pipe, rec)

	if printer.IsJSON() {
		data := map[string]any{
			"path":      msg.Path,
			"category":  msg.Category,
			"message":   msg.Text,
			"generated": msg.Generated,
			"truncated": msg.Truncated,
		}
		if msg.Err != nil {
			data["note"] = msg.Err.Error()
		}
		return printer.WriteJSON(data)
	}

	printer.Println(msg.Text)
	if msg.Err != nil {
		printer.Warn("fallback message used: %v", msg.Err)
	}
	return nil
}

// draftMessage generates rec's message. Categories with fixed messages need
// no completion client.
func draftMessage(cmd *cobra.Command, pipe *pipeline, rec scan.Record) commitmsg.Message {
	if pipe.generator == nil {
		text, _ := commitmsg.FixedMessage(rec)
		return commitmsg.Message{Path: rec.Path, Category: rec.Category, Text: text}
	}
	return pipe.generator.Generate(cmd.Context(), rec)
}
