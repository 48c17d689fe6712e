package commitmsg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/gorewood/autocommit/internal/fetch"
	"github.com/gorewood/autocommit/internal/llm"
	"github.com/gorewood/autocommit/internal/scan"
)

// fakeCompleter answers by looking for a key in the prompt.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	replies map[string]string // prompt substring -> content
	fail    map[string]error  // prompt substring -> error
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()

	for key, err := range f.fail {
		if strings.Contains(req.Prompt, key) {
			return nil, err
		}
	}
	for key, content := range f.replies {
		if strings.Contains(req.Prompt, key) {
			return &llm.Response{Content: content}, nil
		}
	}
	return &llm.Response{Content: "feat: default reply"}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestGenerate_Modified(t *testing.T) {
	completer := &fakeCompleter{replies: map[string]string{"a.py": "feat: replace helloWorld with test"}}
	gen := New(completer, nil, Options{}, nil)

	msg := gen.Generate(context.Background(), scan.Record{
		Path: "a.py", Category: scan.Modified, Payload: "-def helloWorld():\n+def test():",
	})

	if msg.Err != nil || !msg.Generated {
		t.Fatalf("msg = %+v, want generated without error", msg)
	}
	if msg.Text != "feat: replace helloWorld with test" {
		t.Errorf("Text = %q", msg.Text)
	}
	if len(completer.prompts) != 1 || !strings.Contains(completer.prompts[0], "+def test():") {
		t.Errorf("prompt does not embed the diff: %q", completer.prompts)
	}
	if !strings.Contains(completer.prompts[0], "feat, fix, chore") {
		t.Error("prompt does not list the allowed types")
	}
}

func TestGenerate_UntrackedTextUsesContentTemplate(t *testing.T) {
	completer := &fakeCompleter{}
	gen := New(completer, nil, Options{}, nil)

	payload := strings.Repeat("x", fetch.MaxContentChars)
	msg := gen.Generate(context.Background(), scan.Record{Path: "docs/guide.md", Category: scan.UntrackedText, Payload: payload})

	if !msg.Generated {
		t.Fatalf("msg = %+v", msg)
	}
	p := completer.prompts[0]
	if !strings.Contains(p, "new file `docs/guide.md`") || !strings.Contains(p, "(first 3000 characters)") {
		t.Errorf("untracked prompt = %q", p[:200])
	}
}

func TestGenerate_FixedMessagesSkipService(t *testing.T) {
	tests := []struct {
		rec  scan.Record
		want string
	}{
		{rec: scan.Record{Path: "logo.png", Category: scan.UntrackedBinary}, want: "chore: add logo.png"},
		{rec: scan.Record{Path: "old.txt", Category: scan.Deleted}, want: "chore: remove old.txt"},
		{rec: scan.Record{Path: "b.go", OrigPath: "a.go", Category: scan.Renamed}, want: "chore: rename a.go to b.go"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rec.Category), func(t *testing.T) {
			completer := &fakeCompleter{}
			msg := New(completer, nil, Options{}, nil).Generate(context.Background(), tt.rec)

			if msg.Text != tt.want || msg.Generated || msg.Err != nil {
				t.Errorf("msg = %+v, want fixed %q", msg, tt.want)
			}
			if completer.calls() != 0 {
				t.Errorf("completion service called %d times", completer.calls())
			}
		})
	}
}

func TestGenerate_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		rec       scan.Record
		completer *fakeCompleter
		wantErr   error
		wantCalls int
	}{
		{
			name:      "payload fetch failed",
			rec:       scan.Record{Path: "a.py", Category: scan.Modified, PayloadErr: fetch.ErrDiffFailed},
			completer: &fakeCompleter{},
			wantErr:   fetch.ErrDiffFailed,
		},
		{
			name:      "no candidates",
			rec:       scan.Record{Path: "a.py", Category: scan.Modified, Payload: "diff"},
			completer: &fakeCompleter{fail: map[string]error{"a.py": llm.ErrEmptyResponse}},
			wantErr:   ErrNoCandidates,
			wantCalls: 1,
		},
		{
			name:      "blank candidate",
			rec:       scan.Record{Path: "a.py", Category: scan.Modified, Payload: "diff"},
			completer: &fakeCompleter{replies: map[string]string{"a.py": "```\n\n```"}},
			wantErr:   ErrNoCandidates,
			wantCalls: 1,
		},
		{
			name:      "transport error",
			rec:       scan.Record{Path: "a.py", Category: scan.Modified, Payload: "diff"},
			completer: &fakeCompleter{fail: map[string]error{"a.py": errors.New("connection reset")}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := New(tt.completer, nil, Options{}, nil).Generate(context.Background(), tt.rec)

			if msg.Text != "chore: update a.py" || msg.Generated {
				t.Errorf("msg = %+v, want fallback", msg)
			}
			if msg.Err == nil {
				t.Fatal("Err should explain the fallback")
			}
			if tt.wantErr != nil && !errors.Is(msg.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", msg.Err, tt.wantErr)
			}
			if tt.completer.calls() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.completer.calls(), tt.wantCalls)
			}
		})
	}
}

func TestGenerate_EmptyPayloadPlaceholder(t *testing.T) {
	completer := &fakeCompleter{}
	gen := New(completer, nil, Options{}, nil)

	if msg := gen.Generate(context.Background(), scan.Record{Path: "empty.txt", Category: scan.UntrackedText}); msg.Text != "chore: add empty.txt" {
		t.Errorf("empty new file: %+v", msg)
	}
	if msg := gen.Generate(context.Background(), scan.Record{Path: "run.sh", Category: scan.Modified}); msg.Text != "chore: update run.sh" {
		t.Errorf("mode-only change: %+v", msg)
	}
	if completer.calls() != 0 {
		t.Errorf("calls = %d, want 0", completer.calls())
	}
}

func TestGenerate_MultiLineAndMissingPrefix(t *testing.T) {
	completer := &fakeCompleter{replies: map[string]string{
		"multi.go":    "Here is the commit message:\nfix: close file handle\n\nThe handle leaked on error.",
		"noprefix.go": "Add retry loop",
	}}
	gen := New(completer, nil, Options{}, nil)

	msg := gen.Generate(context.Background(), scan.Record{Path: "multi.go", Category: scan.Modified, Payload: "d"})
	if msg.Text != "fix: close file handle" || !msg.Truncated {
		t.Errorf("multi-line: %+v", msg)
	}

	msg = gen.Generate(context.Background(), scan.Record{Path: "noprefix.go", Category: scan.Modified, Payload: "d"})
	if msg.Text != "chore: Add retry loop" || msg.Truncated {
		t.Errorf("missing prefix: %+v", msg)
	}
}

func TestGenerateAll_OneFailureOfN(t *testing.T) {
	completer := &fakeCompleter{fail: map[string]error{"c.go": llm.ErrEmptyResponse}}
	gen := New(completer, nil, Options{Concurrency: 3}, nil)

	var recs []scan.Record
	for _, p := range []string{"a.go", "b.go", "c.go", "d.go", "e.go"} {
		recs = append(recs, scan.Record{Path: p, Category: scan.Modified, Payload: "diff " + p})
	}

	msgs := gen.GenerateAll(context.Background(), recs)

	if completer.calls() != len(recs) {
		t.Errorf("attempted %d generations, want %d", completer.calls(), len(recs))
	}
	generated := 0
	for i, msg := range msgs {
		if msg.Path != recs[i].Path {
			t.Errorf("msgs[%d].Path = %q, want input order", i, msg.Path)
		}
		if msg.Generated {
			generated++
		}
	}
	if generated != len(recs)-1 {
		t.Errorf("generated = %d, want %d", generated, len(recs)-1)
	}
	if !errors.Is(msgs[2].Err, ErrNoCandidates) || msgs[2].Text != "chore: update c.go" {
		t.Errorf("failed record = %+v", msgs[2])
	}
}

func TestGenerateAll_BreakerStopsCalling(t *testing.T) {
	completer := &fakeCompleter{fail: map[string]error{"diff": errors.New("503")}}
	gen := New(completer, nil, Options{Concurrency: 1, MaxFailures: 2}, nil)

	var recs []scan.Record
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		recs = append(recs, scan.Record{Path: p, Category: scan.Modified, Payload: "diff"})
	}

	msgs := gen.GenerateAll(context.Background(), recs)

	if completer.calls() != 2 {
		t.Errorf("calls = %d, want 2 before the breaker opens", completer.calls())
	}
	for _, msg := range msgs {
		if msg.Text != Fallback(msg.Path) {
			t.Errorf("msg = %+v, want fallback", msg)
		}
	}
	if !errors.Is(msgs[4].Err, gobreaker.ErrOpenState) {
		t.Errorf("Err = %v, want open breaker", msgs[4].Err)
	}

	// A new batch starts with a closed breaker.
	completer.fail = nil
	again := gen.GenerateAll(context.Background(), recs[:1])
	if !again[0].Generated {
		t.Errorf("next batch = %+v, want generated", again[0])
	}
}

func TestGenerateAll_PerRecordFailuresKeepBreakerClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "empty completion", err: llm.ErrEmptyResponse},
		{name: "rejected request", err: fmt.Errorf("API error (status 400): %w", llm.ErrRejected)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{fail: map[string]error{"blank": tt.err}}
			gen := New(completer, nil, Options{Concurrency: 1, MaxFailures: 3}, nil)

			recs := []scan.Record{
				{Path: "a", Category: scan.Modified, Payload: "blank"},
				{Path: "b", Category: scan.Modified, Payload: "blank"},
				{Path: "c", Category: scan.Modified, Payload: "blank"},
				{Path: "d", Category: scan.Modified, Payload: "real change"},
			}
			msgs := gen.GenerateAll(context.Background(), recs)

			if completer.calls() != len(recs) {
				t.Errorf("calls = %d, want %d", completer.calls(), len(recs))
			}
			for _, msg := range msgs[:3] {
				if msg.Generated || msg.Err == nil {
					t.Errorf("msg = %+v, want fallback with error", msg)
				}
			}
			if !msgs[3].Generated || msgs[3].Err != nil {
				t.Errorf("healthy record = %+v, want generated", msgs[3])
			}
		})
	}
}
