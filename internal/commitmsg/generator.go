// Package commitmsg produces one commit message per changed path.
//
// Modified and new text files are described by the completion service from
// their diff or content prefix. Binary, deleted and renamed paths get fixed
// messages without a service call. Any failure degrades to a fallback
// message so that every record can still be committed.
package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorewood/autocommit/internal/fetch"
	"github.com/gorewood/autocommit/internal/llm"
	"github.com/gorewood/autocommit/internal/prompt"
	"github.com/gorewood/autocommit/internal/scan"
)

// ErrNoCandidates is recorded when the completion carries no usable message.
var ErrNoCandidates = errors.New("completion returned no usable candidate")

// Defaults for Options.
const (
	DefaultConcurrency = 4
	DefaultMaxFailures = 3
)

// Completer is the completion service. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Templates resolves prompt templates by name. *prompt.Loader implements it.
type Templates interface {
	Load(name string) (*prompt.Template, error)
}

// Message is the commit message chosen for one record.
type Message struct {
	Path     string        `json:"path"`
	Category scan.Category `json:"category"`
	Text     string        `json:"message"`
	// Generated is true when Text came from the completion service.
	Generated bool `json:"generated"`
	// Truncated is true when a multi-line completion was cut to one line.
	Truncated bool `json:"truncated,omitempty"`
	// Err explains why Text is a fallback.
	Err error `json:"-"`
}

// Options configure a Generator.
type Options struct {
	// Concurrency bounds GenerateAll's in-flight requests.
	Concurrency int
	// MaxFailures is the number of consecutive service failures after which
	// the remaining records of a batch get fallback messages without a call.
	MaxFailures uint32
}

// Generator turns fetched records into commit messages.
type Generator struct {
	completer Completer
	templates Templates
	opts      Options
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// New creates a Generator. A nil templates selects the built-in prompts only.
func New(completer Completer, templates Templates, opts Options, logger *zap.Logger) *Generator {
	if templates == nil {
		templates = prompt.NewLoader("", "")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Generator{completer: completer, templates: templates, opts: opts, logger: logger}
	g.breaker = g.newBreaker("commitmsg")
	return g
}

func (g *Generator) newBreaker(name string) *gobreaker.CircuitBreaker {
	limit := g.opts.MaxFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= limit
		},
		IsSuccessful: serviceHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("completion circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// serviceHealthy reports whether err leaves the service usable for other
// records. Empty and rejected completions concern one record only.
func serviceHealthy(err error) bool {
	return err == nil || errors.Is(err, llm.ErrEmptyResponse) || errors.Is(err, llm.ErrRejected)
}

// Generate returns the message for one record. It never fails: errors are
// reported on Message.Err next to a fallback text.
func (g *Generator) Generate(ctx context.Context, rec scan.Record) Message {
	return g.generate(ctx, g.breaker, rec)
}

// GenerateAll generates messages for every record concurrently and waits
// for all of them. Results are in input order. Each call has its own
// circuit breaker, so one failing batch does not poison the next.
func (g *Generator) GenerateAll(ctx context.Context, recs []scan.Record) []Message {
	msgs := make([]Message, len(recs))
	breaker := g.newBreaker("commitmsg-batch")

	var eg errgroup.Group
	eg.SetLimit(g.opts.Concurrency)
	for i, rec := range recs {
		eg.Go(func() error {
			msgs[i] = g.generate(ctx, breaker, rec)
			return nil
		})
	}
	_ = eg.Wait()
	return msgs
}

func (g *Generator) generate(ctx context.Context, breaker *gobreaker.CircuitBreaker, rec scan.Record) Message {
	msg := Message{Path: rec.Path, Category: rec.Category}

	if text, ok := FixedMessage(rec); ok {
		msg.Text = text
		return msg
	}

	if rec.PayloadErr != nil {
		return g.fallback(msg, rec.PayloadErr)
	}

	if strings.TrimSpace(rec.Payload) == "" {
		msg.Text = placeholder(rec)
		return msg
	}

	tmpl, err := g.templates.Load(templateFor(rec.Category))
	if err != nil {
		return g.fallback(msg, err)
	}

	result, err := breaker.Execute(func() (interface{}, error) {
		return g.completer.Complete(ctx, llm.Request{
			System:    tmpl.System,
			Prompt:    tmpl.Render(templateVars(rec)),
			MaxTokens: tmpl.MaxTokens,
		})
	})
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			err = fmt.Errorf("%w: %w", ErrNoCandidates, err)
		}
		return g.fallback(msg, err)
	}

	resp, ok := result.(*llm.Response)
	if !ok || resp == nil {
		return g.fallback(msg, ErrNoCandidates)
	}

	text, truncated := Normalize(resp.Content)
	if text == "" {
		return g.fallback(msg, ErrNoCandidates)
	}
	if !HasConventionalPrefix(text) {
		g.logger.Debug("completion lacks a type prefix", zap.String("path", rec.Path), zap.String("message", text))
		text = "chore: " + text
	}
	if truncated {
		g.logger.Debug("multi-line completion truncated", zap.String("path", rec.Path))
	}

	msg.Text = text
	msg.Generated = true
	msg.Truncated = truncated
	return msg
}

func (g *Generator) fallback(msg Message, err error) Message {
	g.logger.Warn("using fallback commit message",
		zap.String("path", msg.Path),
		zap.String("category", string(msg.Category)),
		zap.Error(err))
	msg.Text = Fallback(msg.Path)
	msg.Err = err
	return msg
}

// FixedMessage returns the message for categories that are never sent to the
// completion service.
func FixedMessage(rec scan.Record) (string, bool) {
	switch rec.Category {
	case scan.UntrackedBinary:
		return "chore: add " + rec.Path, true
	case scan.Deleted:
		return "chore: remove " + rec.Path, true
	case scan.Renamed:
		return "chore: rename " + rec.OrigPath + " to " + rec.Path, true
	default:
		return "", false
	}
}

// Fallback is the message used when generation fails.
func Fallback(path string) string {
	return "chore: update " + path
}

// placeholder names a change whose payload is empty, such as a mode change
// or an empty new file.
func placeholder(rec scan.Record) string {
	if rec.Category == scan.UntrackedText {
		return "chore: add " + rec.Path
	}
	return Fallback(rec.Path)
}

func templateFor(category scan.Category) string {
	if category == scan.UntrackedText {
		return prompt.NameUntracked
	}
	return prompt.NameModified
}

func templateVars(rec scan.Record) map[string]string {
	note := ""
	if rec.Category == scan.UntrackedText && utf8.RuneCountInString(rec.Payload) >= fetch.MaxContentChars {
		note = fmt.Sprintf(" (first %d characters)", fetch.MaxContentChars)
	}
	return map[string]string{
		"path":           rec.Path,
		"payload":        rec.Payload,
		"types":          strings.Join(Types, ", "),
		"truncated_note": note,
	}
}
