// Package fetch attaches diffs and content prefixes to scanned records.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorewood/autocommit/internal/git"
	"github.com/gorewood/autocommit/internal/scan"
)

// MaxContentChars bounds the content prefix read from an untracked text file.
const MaxContentChars = 3000

// DefaultConcurrency is the fan-out limit when none is configured.
const DefaultConcurrency = 8

// Per-record fetch failures. Neither is fatal to a run.
var (
	ErrDiffFailed = errors.New("diff failed")
	ErrReadFailed = errors.New("read failed")
)

// Fetcher produces payloads for scan records.
type Fetcher struct {
	runner      git.Runner
	concurrency int
	logger      *zap.Logger
}

// New creates a Fetcher. A concurrency below one selects DefaultConcurrency.
func New(runner git.Runner, concurrency int, logger *zap.Logger) *Fetcher {
	if runner == nil {
		runner = git.ExecRunner{}
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{runner: runner, concurrency: concurrency, logger: logger}
}

// Fetch returns a copy of rec with Payload or PayloadErr set.
// Binary, deleted and renamed records come back without a payload.
func (f *Fetcher) Fetch(ctx context.Context, root string, rec scan.Record) scan.Record {
	return f.fetch(ctx, git.New(root, f.runner), root, rec)
}

// FetchAll fetches every record concurrently and returns a new slice in the
// input order. Per-record failures are recorded, never returned.
func (f *Fetcher) FetchAll(ctx context.Context, root string, recs []scan.Record) []scan.Record {
	out := make([]scan.Record, len(recs))
	client := git.New(root, f.runner)

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, rec := range recs {
		g.Go(func() error {
			out[i] = f.fetch(ctx, client, root, rec)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (f *Fetcher) fetch(ctx context.Context, client *git.Client, root string, rec scan.Record) scan.Record {
	rec.Payload, rec.PayloadErr = "", nil

	switch rec.Category {
	case scan.Modified:
		rec.Payload, rec.PayloadErr = diff(ctx, client, rec.Path)
	case scan.UntrackedText:
		rec.Payload, rec.PayloadErr = readPrefix(filepath.Join(root, filepath.FromSlash(rec.Path)), MaxContentChars)
	default:
		return rec
	}

	if rec.PayloadErr != nil {
		f.logger.Warn("payload fetch failed",
			zap.String("path", rec.Path),
			zap.String("category", string(rec.Category)),
			zap.Error(rec.PayloadErr))
	}
	return rec
}

func diff(ctx context.Context, client *git.Client, path string) (string, error) {
	var (
		out string
		err error
	)
	if client.HasHEAD(ctx) {
		out, err = client.DiffHEAD(ctx, path)
	} else {
		out, err = client.DiffCached(ctx, path)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDiffFailed, path, err)
	}
	return out, nil
}

// readPrefix returns at most limit runes from the start of the file.
func readPrefix(path string, limit int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer file.Close() //nolint:errcheck // read-only

	// A rune is at most utf8.UTFMax bytes.
	buf, err := io.ReadAll(io.LimitReader(file, int64(limit*utf8.UTFMax)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return truncateRunes(string(buf), limit), nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return strings.ToValidUTF8(s, "�")
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
