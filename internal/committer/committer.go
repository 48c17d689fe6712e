// Package committer runs the scan, fetch, generate and commit pipeline that
// turns a dirty working tree into one commit per changed path.
package committer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gorewood/autocommit/internal/commitmsg"
	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/output"
	"github.com/gorewood/autocommit/internal/scan"
)

// benignPushMarkers identify push output that is not a failure.
var benignPushMarkers = []string{"Everything up-to-date", "up to date"}

// Scanner produces a snapshot of the working tree.
type Scanner interface {
	Scan(ctx context.Context, root string) (*scan.Snapshot, error)
}

// Fetcher attaches payloads to records.
type Fetcher interface {
	FetchAll(ctx context.Context, root string, recs []scan.Record) []scan.Record
}

// Generator produces one message per record, in order.
type Generator interface {
	GenerateAll(ctx context.Context, recs []scan.Record) []commitmsg.Message
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Scanner   Scanner
	Fetcher   Fetcher
	Generator Generator
	// Runner executes git for the commit and push steps.
	// Nil selects git.ExecRunner.
	Runner git.Runner
	// Guard is shared by orchestrators working on the same tree.
	// Nil creates a private one.
	Guard *Guard
}

// Options configure one run.
type Options struct {
	Root     string
	AutoSync bool
	// DryRun stops after message generation without touching the index.
	DryRun bool
	// RunID tags logs and the report. Empty generates one.
	RunID string
	// OnResult is called after each record's commit step, in order.
	OnResult func(CommitResult)
}

// Orchestrator runs commit passes over a working tree.
type Orchestrator struct {
	deps   Deps
	state  atomic.Int32
	logger *zap.Logger

	mu        sync.Mutex
	listeners []func(*Report)
}

// New creates an Orchestrator.
func New(deps Deps, logger *zap.Logger) *Orchestrator {
	if deps.Runner == nil {
		deps.Runner = git.ExecRunner{}
	}
	if deps.Guard == nil {
		deps.Guard = &Guard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, logger: logger}
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// OnFinish registers fn to be called after every completed run, once the
// guard is released. Views of unpushed commits refresh from here.
func (o *Orchestrator) OnFinish(fn func(*Report)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Run performs one pass. A second Run while one is in progress fails
// immediately with ErrBusy and has no side effects. Scan failures abort the
// run before anything is committed; every later failure is recorded in the
// report and the run continues.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Root == "" {
		return nil, output.NewUserError("no repository root given")
	}
	if !o.deps.Guard.TryAcquire() {
		return nil, output.NewBusyError("another commit run is in progress", ErrBusy)
	}

	var report *Report
	defer func() {
		o.setState(Idle)
		o.deps.Guard.Release()
		if report != nil {
			report.Duration = time.Since(report.Started)
			o.notify(report)
		}
	}()

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := o.logger.With(zap.String("run_id", opts.RunID), zap.String("root", opts.Root))

	started := time.Now()
	o.setState(Scanning)
	snap, err := o.deps.Scanner.Scan(ctx, opts.Root)
	if err != nil {
		log.Error("scan failed", zap.Error(err))
		return nil, output.NewSystemErrorWithCause("scanning working tree failed: "+err.Error(), err)
	}

	report = &Report{
		RunID:   opts.RunID,
		Root:    opts.Root,
		DryRun:  opts.DryRun,
		Results: []CommitResult{},
		Skipped: snap.Skipped,
		Started: started,
	}

	if snap.Empty() {
		log.Info("working tree clean")
		return report, nil
	}

	o.setState(Fetching)
	recs := o.deps.Fetcher.FetchAll(ctx, opts.Root, snap.Records)

	o.setState(Generating)
	msgs := o.deps.Generator.GenerateAll(ctx, recs)
	if len(recs) != len(snap.Records) || len(msgs) != len(recs) {
		report = nil
		return nil, output.NewSystemError("internal error: pipeline stage dropped records")
	}

	if opts.DryRun {
		for i, rec := range recs {
			report.Results = append(report.Results, planned(rec, msgs[i]))
		}
		return report, nil
	}

	o.setState(Committing)
	client := git.New(opts.Root, o.deps.Runner)
	for i, rec := range recs {
		res := planned(rec, msgs[i])
		if err := ctx.Err(); err != nil {
			res.err = err
		} else {
			res.err = o.commit(ctx, client, rec, res.Message)
		}
		res.Succeeded = res.err == nil
		if res.err != nil {
			res.Error = res.err.Error()
			log.Warn("commit failed", zap.String("path", rec.Path), zap.Error(res.err))
		} else {
			log.Debug("committed", zap.String("path", rec.Path), zap.String("message", res.Message))
		}
		report.Results = append(report.Results, res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
	}

	if opts.AutoSync {
		o.push(ctx, client, report, log)
	}

	log.Info("run finished",
		zap.Int("committed", report.Committed()),
		zap.Int("failed", report.Failed()),
		zap.Bool("pushed", report.Pushed))
	return report, nil
}

// commit stages one record and commits exactly its paths.
func (o *Orchestrator) commit(ctx context.Context, client *git.Client, rec scan.Record, message string) error {
	var err error
	switch {
	case rec.Category == scan.Renamed:
		// The rename is already staged; the source path no longer matches
		// anything, so only the destination is added.
		err = client.AddAll(ctx, rec.Path)
	case rec.Category == scan.Deleted:
		err = client.Remove(ctx, rec.Path)
	case rec.Category == scan.Modified && !exists(client.Dir(), rec.Path):
		err = client.Remove(ctx, rec.Path)
	default:
		err = client.Add(ctx, rec.Path)
	}
	if err != nil {
		return err
	}
	return client.Commit(ctx, message, rec.Paths()...)
}

// push runs only when this run produced at least one commit.
func (o *Orchestrator) push(ctx context.Context, client *git.Client, report *Report, log *zap.Logger) {
	if report.Committed() == 0 {
		report.PushNote = "nothing committed, push skipped"
		return
	}

	o.setState(Pushing)
	res, err := client.Push(ctx)
	out := strings.TrimSpace(res.Combined())
	if err != nil && !isBenignPush(out) {
		report.PushErr = err
		log.Warn("push failed", zap.Error(err))
		return
	}
	report.Pushed = true
	report.PushNote = out
	log.Debug("pushed", zap.String("output", out))
}

func isBenignPush(out string) bool {
	for _, marker := range benignPushMarkers {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

func (o *Orchestrator) notify(report *Report) {
	o.mu.Lock()
	listeners := slices.Clone(o.listeners)
	o.mu.Unlock()
	for _, fn := range listeners {
		fn(report)
	}
}

func planned(rec scan.Record, msg commitmsg.Message) CommitResult {
	res := CommitResult{
		Path:      rec.Path,
		OrigPath:  rec.OrigPath,
		Category:  rec.Category,
		Message:   msg.Text,
		Generated: msg.Generated,
		Truncated: msg.Truncated,
	}
	if msg.Err != nil {
		res.Note = msg.Err.Error()
	}
	return res
}

func exists(root, path string) bool {
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(path)))
	return !errors.Is(err, os.ErrNotExist)
}
