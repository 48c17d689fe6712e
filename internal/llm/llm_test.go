//nolint:bodyclose // Test file uses mock responses with NopCloser bodies
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// mockHTTPDoer records the last request and replies with a canned response.
type mockHTTPDoer struct {
	response *http.Response
	err      error
	calls    int
	lastReq  *http.Request
	lastBody []byte
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	m.lastReq = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	return m.response, m.err
}

func mockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newTestClient(t *testing.T, opts Options, doer *mockHTTPDoer) *Client {
	t.Helper()
	opts.HTTP = doer
	if opts.APIKey == "" {
		opts.APIKey = "test-key"
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Provider() != ProviderOpenAI || client.Model() != DefaultModel {
		t.Errorf("defaults = %s/%s, want openai/%s", client.Provider(), client.Model(), DefaultModel)
	}
	if client.limiter != nil {
		t.Error("limiter should be nil when RequestsPerSecond is 0")
	}
}

func TestNew_ProviderResolution(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantProvider Provider
		wantModel    string
	}{
		{name: "full openai model", opts: Options{Model: "gpt-4o"}, wantProvider: ProviderOpenAI, wantModel: "gpt-4o"},
		{name: "claude alias", opts: Options{Model: "claude-haiku"}, wantProvider: ProviderAnthropic, wantModel: "claude-haiku-4-5-20251001"},
		{name: "full claude model", opts: Options{Model: "claude-3-opus-20240229"}, wantProvider: ProviderAnthropic, wantModel: "claude-3-opus-20240229"},
		{name: "gemini alias", opts: Options{Model: "gemini-flash"}, wantProvider: ProviderGoogle, wantModel: "gemini-2.5-flash"},
		{name: "explicit provider prefix", opts: Options{Model: "openai-mini"}, wantProvider: ProviderOpenAI, wantModel: "gpt-4o-mini"},
		{name: "provider without model", opts: Options{Provider: ProviderAnthropic}, wantProvider: ProviderAnthropic, wantModel: "claude-haiku-4-5-20251001"},
		{name: "explicit provider keeps model", opts: Options{Provider: ProviderLocal, Model: "qwen2.5-coder"}, wantProvider: ProviderLocal, wantModel: "qwen2.5-coder"},
		{name: "unknown model defaults to openai", opts: Options{Model: "mystery"}, wantProvider: ProviderOpenAI, wantModel: "mystery"},
		{name: "case insensitive alias", opts: Options{Provider: ProviderOpenAI, Model: "TURBO"}, wantProvider: ProviderOpenAI, wantModel: "gpt-3.5-turbo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.APIKey = "k"
			client, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if client.Provider() != tt.wantProvider {
				t.Errorf("Provider() = %q, want %q", client.Provider(), tt.wantProvider)
			}
			if client.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", client.Model(), tt.wantModel)
			}
		})
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	if _, err := New(Options{Provider: "acme", APIKey: "k"}); err == nil {
		t.Fatal("New() expected error for unsupported provider")
	}
}

func TestResolve_MatchesNew(t *testing.T) {
	provider, model := Resolve("", "sonnet")
	if provider != ProviderAnthropic || model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Resolve(sonnet) = %s/%s", provider, model)
	}
	provider, model = Resolve("", "claude-sonnet")
	if provider != ProviderAnthropic || model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Resolve(claude-sonnet) = %s/%s", provider, model)
	}
	if provider, _ := Resolve("acme", ""); provider != "acme" {
		t.Errorf("Resolve must not validate: got %q", provider)
	}
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		explicit string
		env      map[string]string
		want     string
		wantErr  bool
	}{
		{name: "explicit wins", provider: ProviderOpenAI, explicit: "cfg", env: map[string]string{"OPENAI_API_KEY": "env"}, want: "cfg"},
		{name: "env fallback", provider: ProviderOpenAI, env: map[string]string{"OPENAI_API_KEY": "env"}, want: "env"},
		{name: "anthropic env", provider: ProviderAnthropic, env: map[string]string{"ANTHROPIC_API_KEY": "ant"}, want: "ant"},
		{name: "missing key", provider: ProviderGoogle, wantErr: true},
		{name: "local needs none", provider: ProviderLocal, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY"} {
				t.Setenv(v, tt.env[v])
			}
			got, err := resolveAPIKey(tt.provider, tt.explicit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComplete_OpenAIRequestShape(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"feat: add parser"}}]}`)}
	client := newTestClient(t, Options{}, doer)

	resp, err := client.Complete(context.Background(), Request{Prompt: "diff here"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "feat: add parser" {
		t.Errorf("Content = %q", resp.Content)
	}

	if got := doer.lastReq.URL.String(); got != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("URL = %q", got)
	}
	if got := doer.lastReq.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization = %q", got)
	}

	var body chatRequest
	if err := json.Unmarshal(doer.lastBody, &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if body.Model != DefaultModel || body.MaxTokens != DefaultMaxTokens {
		t.Errorf("body model/max_tokens = %q/%d", body.Model, body.MaxTokens)
	}
	if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "diff here" {
		t.Errorf("messages = %+v, want a single user message", body.Messages)
	}
}

func TestComplete_EmptyCandidates(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		body string
	}{
		{name: "openai no choices", opts: Options{}, body: `{"choices":[]}`},
		{name: "local no choices", opts: Options{Provider: ProviderLocal}, body: `{}`},
		{name: "anthropic no text", opts: Options{Provider: ProviderAnthropic}, body: `{"content":[{"type":"tool_use"}]}`},
		{name: "google no candidates", opts: Options{Provider: ProviderGoogle}, body: `{"candidates":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.opts, &mockHTTPDoer{response: mockResponse(http.StatusOK, tt.body)})
			_, err := client.Complete(context.Background(), Request{Prompt: "p"})
			if !errors.Is(err, ErrEmptyResponse) {
				t.Errorf("Complete() error = %v, want ErrEmptyResponse", err)
			}
		})
	}
}

func TestComplete_APIErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      string
		wantRejected bool
	}{
		{name: "401", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantErr: "API error (status 401)"},
		{name: "429", status: http.StatusTooManyRequests, body: `slow down`, wantErr: "API error (status 429)"},
		{name: "400", status: http.StatusBadRequest, body: `{"error":"prompt too long"}`, wantErr: "status 400", wantRejected: true},
		{name: "413", status: http.StatusRequestEntityTooLarge, body: `too large`, wantErr: "status 413", wantRejected: true},
		{name: "error object", status: http.StatusOK, body: `{"error":{"message":"model not found"}}`, wantErr: "model not found"},
		{name: "invalid json", status: http.StatusOK, body: `not json`, wantErr: "failed to parse"},
		{name: "long body truncated", status: http.StatusBadGateway, body: strings.Repeat("x", 2000), wantErr: "status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, Options{}, &mockHTTPDoer{response: mockResponse(tt.status, tt.body)})
			_, err := client.Complete(context.Background(), Request{Prompt: "p"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Complete() error = %v, want containing %q", err, tt.wantErr)
			}
			if len(err.Error()) > 600 {
				t.Errorf("error message not truncated: %d bytes", len(err.Error()))
			}
			if got := errors.Is(err, ErrRejected); got != tt.wantRejected {
				t.Errorf("errors.Is(err, ErrRejected) = %v, want %v", got, tt.wantRejected)
			}
		})
	}
}

func TestComplete_TransportError(t *testing.T) {
	client := newTestClient(t, Options{}, &mockHTTPDoer{err: errors.New("connection refused")})
	if _, err := client.Complete(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("Complete() expected error")
	}
}

func TestComplete_RateLimitHonoursContext(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)}
	client := newTestClient(t, Options{RequestsPerSecond: 0.001}, doer)

	if _, err := client.Complete(context.Background(), Request{Prompt: "first"}); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Complete(ctx, Request{Prompt: "second"}); err == nil {
		t.Fatal("second Complete() should fail waiting for the limiter")
	}
	if doer.calls != 1 {
		t.Errorf("HTTP calls = %d, want 1", doer.calls)
	}
}
