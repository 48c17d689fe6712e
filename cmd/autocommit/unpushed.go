package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/unpushed"
)

// newUnpushedCmd creates the unpushed command.
func newUnpushedCmd() *cobra.Command {
	var watchFlag bool
	cmd := &cobra.Command{
		Use:   "unpushed",
		Short: "List local commits that have not been pushed",
		Long: `List the commits on the current branch that no remote has yet, newest
first, with the files each one touched.

With --watch the list is printed again whenever the branch or its refs
change on disk, until interrupted.

Examples:
  autocommit unpushed
  autocommit unpushed --watch
  autocommit unpushed --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUnpushed(cmd, watchFlag)
		},
	}
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-list whenever refs change")
	return cmd
}

// runUnpushed executes the unpushed command.
func runUnpushed(cmd *cobra.Command, watch bool) error {
	printer := newPrinter(cmd)

	pipe, err := newPipeline(cmd)
	if err != nil {
		printer.Error(err)
		return err
	}

	view := unpushed.NewView(pipe.lister, pipe.root)
	entries, err := view.Reload(cmd.Context())
	if err != nil {
		printer.Error(err)
		return err
	}
	if err := printUnpushed(printer, entries); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	return watchUnpushed(cmd, pipe, view, printer)
}

// watchUnpushed reprints the list on every ref change until interrupted.
func watchUnpushed(cmd *cobra.Command, pipe *pipeline, view *unpushed.View, printer *output.Printer) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	gitDir, err := git.New(pipe.root, pipe.runner).GitDir(ctx)
	if err != nil {
		printer.Error(err)
		return err
	}

	notifier := &unpushed.Notifier{}
	unsubscribe := notifier.Subscribe(func() {
		entries, err := view.Reload(ctx)
		if err != nil {
			if ctx.Err() == nil {
				pipe.logger.Warn("reloading unpushed commits failed", zap.Error(err))
			}
			return
		}
		_ = printUnpushed(printer, entries)
	})
	defer unsubscribe()

	err = unpushed.Watch(ctx, gitDir, notifier, unpushed.DefaultDebounce, pipe.logger.Named("watch"))
	if err != nil && !errors.Is(err, context.Canceled) {
		sysErr := output.NewSystemErrorWithCause("watching refs failed: "+err.Error(), err)
		printer.Error(sysErr)
		return sysErr
	}
	return nil
}

// printUnpushed prints one listing.
func printUnpushed(printer *output.Printer, entries []unpushed.Entry) error {
	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"count":   len(entries),
			"commits": entries,
		})
	}

	if len(entries) == 0 {
		printer.Println("No unpushed commits")
		return nil
	}
	styles := printer.Styles()
	printer.Section(fmt.Sprintf("Unpushed commits (%d)", len(entries)))
	for _, entry := range entries {
		printer.Print("%s %s\n", styles.Key.Render(shortHash(entry.Hash)), entry.Summary)
		if len(entry.Files) > 0 {
			printer.Print("    %s\n", styles.Dim.Render(strings.Join(entry.Files, ", ")))
		}
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
