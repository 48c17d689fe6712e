package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/config"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/prompt"
)

// newPromptsCmd creates the prompts command.
func newPromptsCmd() *cobra.Command {
	var showFlag string
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List or show the prompt templates used for messages",
		Long: `List the prompt templates used to ask for commit messages.

Templates are resolved in order:
  1. <repo>/.autocommit/prompts/<name>.md (project-local)
  2. ~/.config/autocommit/prompts/<name>.md (user global)
  3. Built-in templates

"modified" is used for changed files and "untracked" for new text files.

Examples:
  autocommit prompts                   # List templates and where they come from
  autocommit prompts --show modified   # Print the effective template`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrompts(cmd, showFlag)
		},
	}
	cmd.Flags().StringVar(&showFlag, "show", "", "Print the named template")
	return cmd
}

// runPrompts executes the prompts command. It works outside a repository.
func runPrompts(cmd *cobra.Command, show string) error {
	printer := newPrinter(cmd)

	root, err := git.New(workDir(cmd), nil).RepoRoot(cmd.Context())
	if err != nil {
		root = ""
	}
	loader := prompt.NewLoader(root, config.Dir())

	if show != "" {
		return runPromptsShow(printer, loader, show)
	}

	infos := loader.List()
	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{"templates": infos})
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		source := info.Source
		if info.Overrides != "" {
			source += " (overrides " + info.Overrides + ")"
		}
		rows = append(rows, []string{info.Name, source, info.Description})
	}
	printer.Table([]string{"NAME", "SOURCE", "DESCRIPTION"}, rows)
	return nil
}

// runPromptsShow prints one template with its metadata.
func runPromptsShow(printer *output.Printer, loader *prompt.Loader, name string) error {
	tmpl, err := loader.Load(name)
	if err != nil {
		userErr := output.NewUserError(fmt.Sprintf("%v. Run 'autocommit prompts' to see available templates", err))
		printer.Error(userErr)
		return userErr
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"name":        tmpl.Name,
			"description": tmpl.Description,
			"version":     tmpl.Version,
			"max_tokens":  tmpl.MaxTokens,
			"system":      tmpl.System,
			"content":     tmpl.Content,
			"source":      tmpl.Source,
		})
	}

	printer.Section(tmpl.Name)
	printer.KeyValue("Source", tmpl.Source)
	printer.KeyValue("Description", tmpl.Description)
	if tmpl.System != "" {
		printer.KeyValue("System", tmpl.System)
	}
	printer.Println()
	printer.Println(tmpl.Content)
	return nil
}
