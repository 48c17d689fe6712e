// Package main provides the entry point for the autocommit CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/config"
	"github.com/gorewood/autocommit/internal/envfile"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor combines --color with TTY detection of the command's output.
func useColor(cmd *cobra.Command) bool {
	mode := output.ColorAuto
	if flag := cmd.Flags().Lookup("color"); flag != nil {
		mode, _ = output.ParseColorMode(flag.Value.String())
	}
	return output.ColorEnabled(mode, cmd.OutOrStdout())
}

// newPrinter creates the printer every command writes through.
func newPrinter(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr())
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the autocommit CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocommit",
		Short: "Commit every changed file separately with a generated message",
		Long: `Autocommit - one commit per changed file, each with a generated message.

Autocommit turns a dirty working tree into a series of small commits by:
  - Classifying every changed path (new text, new binary, modified, deleted, renamed)
  - Asking a completion service for a conventional commit message per file
  - Falling back to fixed messages for binaries, deletions and renames
  - Optionally pushing the branch once the commits are made

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'autocommit --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Load .env.local, .env and the global env file for API keys.
	// Environment variables always take precedence over file values.
	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if flag := cmd.Flags().Lookup("color"); flag != nil {
			if _, err := output.ParseColorMode(flag.Value.String()); err != nil {
				output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), false).
					WithStderr(cmd.ErrOrStderr()).Error(err)
				return err
			}
		}
		loadEnvFiles(cmd)
		return nil
	}

	flags := cmd.PersistentFlags()
	flags.Bool("json", false, "Output in JSON format")
	flags.String("color", output.ColorAuto, "Color output: "+strings.Join(output.ColorModes, ", "))
	flags.BoolP("verbose", "v", false, "Log pipeline progress to stderr")
	flags.StringP("dir", "C", ".", "Run as if started in this directory")
	addConfigFlags(cmd)

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addConfigFlags declares the flags that override configuration keys.
// Flag names match the keys with dashes for underscores.
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("model", "m", "", "Model name or alias (e.g. mini, haiku, flash)")
	flags.StringP("provider", "p", "", "Provider (openai, anthropic, google, local) - inferred if omitted")
	flags.String("base-url", "", "Override the provider endpoint")
	flags.Bool("auto-sync", false, "Push after committing")
	flags.StringSlice("ignore", nil, "Extra gitignore-style patterns to leave uncommitted")
	flags.String("ignore-file", config.DefaultIgnoreFile, "Ignore file read relative to the repository root")
	flags.Int("concurrency", config.DefaultConcurrency, "Parallel diff and completion requests")
	flags.Float64("requests-per-second", 0, "Completion request rate limit (0 for none)")
	flags.Duration("timeout", config.DefaultTimeout, "Completion request timeout")
}

// loadEnvFiles loads env files in priority order. First match for each
// variable wins; environment variables already set always take precedence.
//
// Resolution order:
//  1. <repo>/.env.local       (per-repo override, gitignored)
//  2. <repo>/.env             (per-repo)
//  3. ~/.config/autocommit/env (global fallback)
func loadEnvFiles(cmd *cobra.Command) {
	root := workDir(cmd)
	if top, err := git.New(root, nil).RepoRoot(cmd.Context()); err == nil {
		root = top
	}
	_ = envfile.Load(envfile.Defaults(root, config.Dir())...)
}

// workDir returns the --dir flag value.
func workDir(cmd *cobra.Command) string {
	if flag := cmd.Flags().Lookup("dir"); flag != nil && flag.Value.String() != "" {
		return flag.Value.String()
	}
	return "."
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "query", Title: "Query Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	addGroupedCommand(cmd, newCommitCmd(), "core")
	addGroupedCommand(cmd, newDraftCmd(), "core")

	addGroupedCommand(cmd, newScanCmd(), "query")
	addGroupedCommand(cmd, newStatusCmd(), "query")
	addGroupedCommand(cmd, newUnpushedCmd(), "query")

	addGroupedCommand(cmd, newServeCmd(), "agent")

	addGroupedCommand(cmd, newConfigCmd(), "admin")
	addGroupedCommand(cmd, newPromptsCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
