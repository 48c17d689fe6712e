// Package mcp provides a Model Context Protocol server for autocommit.
// It exposes the scan, draft and commit pipeline as tools that any
// MCP-capable agent or editor can call.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/autocommit/internal/commitmsg"
	"github.com/gorewood/autocommit/internal/committer"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/scan"
	"github.com/gorewood/autocommit/internal/unpushed"
)

// RecordFetcher attaches a payload to one record.
type RecordFetcher interface {
	Fetch(ctx context.Context, root string, rec scan.Record) scan.Record
}

// Drafter produces the message for one record.
type Drafter interface {
	Generate(ctx context.Context, rec scan.Record) commitmsg.Message
}

// Service holds the pipeline the tools drive for one repository.
type Service struct {
	Root     string
	AutoSync bool

	Scanner      committer.Scanner
	Fetcher      RecordFetcher
	Drafter      Drafter
	Orchestrator *committer.Orchestrator
	// Unpushed is refreshed after every commit run.
	Unpushed *unpushed.View
	// Runner executes read-only git queries. Nil selects git.ExecRunner.
	Runner git.Runner
}

// NewServer creates an MCP server with all autocommit tools registered.
func NewServer(version string, svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "autocommit",
		Version: version,
	}, nil)
	registerTools(server, svc)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// draftAnnotations marks a tool that only reads the repository but calls
// the completion service.
func draftAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:  true,
		OpenWorldHint: boolPtr(true),
	}
}

// writeAnnotations returns annotations for tools that create commits
// (additive, not destructive).
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
	}
}

// registerTools adds all autocommit tools to the server.
func registerTools(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan",
		Description: "List every changed path in the working tree with its change category (untracked-text, untracked-binary, modified, deleted, renamed) and any paths that will be skipped.",
		Annotations: readOnlyAnnotations(),
	}, handleScan(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft",
		Description: "Generate the commit message autocommit would use for one changed path, without committing anything.",
		Annotations: draftAnnotations(),
	}, handleDraft(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "commit_all",
		Description: "Commit every changed path separately with a generated message, then push if auto-sync is on. Fails if a run is already in progress.",
		Annotations: writeAnnotations(),
	}, handleCommitAll(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unpushed",
		Description: "List local commits on the current branch that have not been pushed, with the files each one touched.",
		Annotations: readOnlyAnnotations(),
	}, handleUnpushed(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Show the repository root, branch, pipeline state, and pending change counts.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(svc))
}
