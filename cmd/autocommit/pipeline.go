package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/commitmsg"
	"github.com/gorewood/autocommit/internal/committer"
	"github.com/gorewood/autocommit/internal/config"
	"github.com/gorewood/autocommit/internal/fetch"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/llm"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/prompt"
	"github.com/gorewood/autocommit/internal/scan"
	"github.com/gorewood/autocommit/internal/unpushed"
)

// pipeline holds the components every command builds from configuration.
type pipeline struct {
	root    string
	cfg     *config.Config
	logger  *zap.Logger
	runner  git.Runner
	scanner *scan.Scanner
	fetcher *fetch.Fetcher
	lister  *unpushed.Lister
	prompts *prompt.Loader

	// generator is nil until withGenerator succeeds.
	generator *commitmsg.Generator
}

// newPipeline resolves the repository root from --dir, loads configuration
// and builds the components that need no credential.
func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	logger := commandLogger(cmd)
	runner := git.ExecRunner{}

	root, err := git.New(workDir(cmd), runner).RepoRoot(cmd.Context())
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root, cmd.Flags())
	if err != nil {
		return nil, output.NewUserError("invalid configuration: " + err.Error())
	}
	logger.Debug("configuration loaded", zap.String("root", root), zap.Strings("sources", cfg.Sources))

	return &pipeline{
		root:   root,
		cfg:    cfg,
		logger: logger,
		runner: runner,
		scanner: scan.NewScanner(runner, logger.Named("scan"), scan.Options{
			IgnoreFile: cfg.IgnoreFile,
			Ignore:     cfg.Ignore,
		}),
		fetcher: fetch.New(runner, cfg.Concurrency, logger.Named("fetch")),
		lister:  unpushed.NewLister(runner, logger.Named("unpushed")),
		prompts: prompt.NewLoader(root, config.Dir()),
	}, nil
}

// withGenerator creates the completion client and message generator.
// It fails when the provider needs a credential that is not configured.
func (p *pipeline) withGenerator() error {
	client, err := llm.New(llm.Options{
		Provider:          llm.Provider(p.cfg.Provider),
		Model:             p.cfg.Model,
		APIKey:            p.cfg.APIKey,
		BaseURL:           p.cfg.BaseURL,
		RequestsPerSecond: p.cfg.RequestsPerSecond,
		Timeout:           p.cfg.Timeout,
	})
	if err != nil {
		return err
	}
	p.logger.Debug("completion client ready",
		zap.String("provider", string(client.Provider())),
		zap.String("model", client.Model()))

	p.generator = commitmsg.New(client, p.prompts, commitmsg.Options{
		Concurrency: p.cfg.Concurrency,
	}, p.logger.Named("commitmsg"))
	return nil
}

// orchestrator wires the pipeline into a commit orchestrator.
// withGenerator must have succeeded.
func (p *pipeline) orchestrator(guard *committer.Guard) *committer.Orchestrator {
	return committer.New(committer.Deps{
		Scanner:   p.scanner,
		Fetcher:   p.fetcher,
		Generator: p.generator,
		Runner:    p.runner,
		Guard:     guard,
	}, p.logger.Named("committer"))
}
