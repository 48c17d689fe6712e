package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/autocommit/internal/config"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/llm"
	"github.com/gorewood/autocommit/internal/output"
)

// newConfigCmd creates the config command.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration autocommit would run with and where it came from.

Settings are layered, later sources winning:
  1. Built-in defaults
  2. ~/.config/autocommit/config.yaml (user global)
  3. <repo>/.autocommit.yaml (project)
  4. AUTOCOMMIT_* environment variables (e.g. AUTOCOMMIT_AUTO_SYNC=true)
  5. Command-line flags

The API key is read from api_key or, when unset, from the provider's
variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY). It is masked
in this output.

Examples:
  autocommit config
  autocommit config --json`,
		Args: cobra.NoArgs,
		RunE: runConfig,
	}
}

// runConfig executes the config command. It works outside a repository,
// where only the global layers apply.
func runConfig(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	root, err := git.New(workDir(cmd), nil).RepoRoot(cmd.Context())
	if err != nil {
		root = ""
	}

	cfg, err := config.Load(root, cmd.Flags())
	if err != nil {
		userErr := output.NewUserError("invalid configuration: " + err.Error())
		printer.Error(userErr)
		return userErr
	}
	shown := cfg.Redacted()
	keyVar := credentialSource(cfg)

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"config":            shown,
			"config_dir":        config.Dir(),
			"repo_root":         root,
			"credential_source": keyVar,
		})
	}

	printer.Section("Configuration")
	printer.KeyValue(config.KeyProvider, orDefault(shown.Provider, "(inferred)"))
	printer.KeyValue(config.KeyModel, orDefault(shown.Model, "(default)"))
	printer.KeyValue(config.KeyAPIKey, orDefault(shown.APIKey, "(unset)"))
	printer.KeyValue(config.KeyBaseURL, orDefault(shown.BaseURL, "(provider default)"))
	printer.KeyValue(config.KeyAutoSync, fmt.Sprintf("%t", shown.AutoSync))
	printer.KeyValue(config.KeyIgnore, orDefault(strings.Join(shown.Ignore, ", "), "(none)"))
	printer.KeyValue(config.KeyIgnoreFile, shown.IgnoreFile)
	printer.KeyValue(config.KeyConcurrency, fmt.Sprintf("%d", shown.Concurrency))
	printer.KeyValue(config.KeyRequestsPerSecond, fmt.Sprintf("%g", shown.RequestsPerSecond))
	printer.KeyValue(config.KeyTimeout, shown.Timeout.String())

	printer.Section("Sources")
	printer.KeyValue("Config dir", config.Dir())
	if len(shown.Sources) == 0 {
		printer.Println("No config files found; using defaults")
	}
	for _, src := range shown.Sources {
		printer.Println("  " + src)
	}
	printer.KeyValue("Credential", keyVar)
	return nil
}

// credentialSource names where the API key comes from.
func credentialSource(cfg *config.Config) string {
	if cfg.APIKey != "" {
		return config.KeyAPIKey
	}
	provider, _ := llm.Resolve(llm.Provider(cfg.Provider), cfg.Model)
	if envVar := llm.APIKeyEnvVar(provider); envVar != "" {
		return envVar
	}
	return "none required"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
