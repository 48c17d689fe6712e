package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/committer"
	"github.com/gorewood/autocommit/internal/git"
	acmcp "github.com/gorewood/autocommit/internal/mcp"
	"github.com/gorewood/autocommit/internal/unpushed"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run autocommit as a Model Context Protocol (MCP) server over stdio.

This exposes the commit pipeline as MCP tools that any MCP-capable editor or
agent environment can use.

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "autocommit": {
        "command": "autocommit",
        "args": ["serve"]
      }
    }
  }

Available tools: scan, draft, commit_all, unpushed, status`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, _ []string) error {
	pipe, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	if err := pipe.withGenerator(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, notifier := newService(ctx, pipe, &committer.Guard{})
	startRefWatch(ctx, pipe, notifier)

	server := acmcp.NewServer(buildVersion(), svc)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// newService wires the pipeline into the MCP service. The unpushed view
// reloads after every commit run and whenever notifier refreshes.
func newService(ctx context.Context, pipe *pipeline, guard *committer.Guard) (*acmcp.Service, *unpushed.Notifier) {
	notifier := &unpushed.Notifier{}
	view := unpushed.NewView(pipe.lister, pipe.root)
	view.Bind(ctx, notifier)

	orch := pipe.orchestrator(guard)
	orch.OnFinish(func(*committer.Report) { notifier.Refresh() })

	return &acmcp.Service{
		Root:         pipe.root,
		AutoSync:     pipe.cfg.AutoSync,
		Scanner:      pipe.scanner,
		Fetcher:      pipe.fetcher,
		Drafter:      pipe.generator,
		Orchestrator: orch,
		Unpushed:     view,
		Runner:       pipe.runner,
	}, notifier
}

// startRefWatch refreshes notifier on ref changes in the background.
// Watch errors are logged, not returned.
func startRefWatch(ctx context.Context, pipe *pipeline, notifier *unpushed.Notifier) {
	gitDir, err := git.New(pipe.root, pipe.runner).GitDir(ctx)
	if err != nil {
		pipe.logger.Warn("not watching refs", zap.Error(err))
		return
	}
	go func() {
		if err := unpushed.Watch(ctx, gitDir, notifier, unpushed.DefaultDebounce, pipe.logger.Named("watch")); err != nil {
			pipe.logger.Warn("ref watcher stopped", zap.Error(err))
		}
	}()
}
