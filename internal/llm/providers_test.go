//nolint:bodyclose // Test file uses mock responses with NopCloser bodies
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestComplete_Anthropic(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(http.StatusOK,
		`{"content":[{"type":"text","text":"fix: handle "},{"type":"text","text":"nil config"}]}`)}
	client := newTestClient(t, Options{Provider: ProviderAnthropic, Model: "haiku"}, doer)

	resp, err := client.Complete(context.Background(), Request{System: "be brief", Prompt: "diff"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "fix: handle nil config" {
		t.Errorf("Content = %q", resp.Content)
	}
	if got := doer.lastReq.URL.String(); got != "https://api.anthropic.com/v1/messages" {
		t.Errorf("URL = %q", got)
	}
	if doer.lastReq.Header.Get("x-api-key") != "test-key" || doer.lastReq.Header.Get("anthropic-version") == "" {
		t.Errorf("headers = %v", doer.lastReq.Header)
	}

	var body anthropicRequest
	if err := json.Unmarshal(doer.lastBody, &body); err != nil {
		t.Fatal(err)
	}
	if body.System != "be brief" || body.MaxTokens != DefaultMaxTokens {
		t.Errorf("body = %+v", body)
	}
}

func TestComplete_Google(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"docs: "},{"text":"update readme"}]}}]}`)}
	client := newTestClient(t, Options{Provider: ProviderGoogle, Model: "flash"}, doer)

	resp, err := client.Complete(context.Background(), Request{Prompt: "diff", MaxTokens: 64})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "docs: update readme" {
		t.Errorf("Content = %q", resp.Content)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	if got := doer.lastReq.URL.String(); got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}

	var body googleRequest
	if err := json.Unmarshal(doer.lastBody, &body); err != nil {
		t.Fatal(err)
	}
	if body.GenerationConfig.MaxOutputTokens != 64 || body.SystemInstruction != nil {
		t.Errorf("body = %+v", body)
	}
}

func TestComplete_Local(t *testing.T) {
	t.Setenv("LOCAL_LLM_URL", "http://127.0.0.1:11434/v1/")
	doer := &mockHTTPDoer{response: mockResponse(http.StatusOK, `{"choices":[{"message":{"content":"chore: bump"}}]}`)}

	client, err := New(Options{Provider: ProviderLocal, Model: "local", HTTP: doer})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	resp, err := client.Complete(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "chore: bump" {
		t.Errorf("Content = %q", resp.Content)
	}
	if got := doer.lastReq.URL.String(); got != "http://127.0.0.1:11434/v1/chat/completions" {
		t.Errorf("URL = %q", got)
	}
	if doer.lastReq.Header.Get("Authorization") != "" {
		t.Error("local provider must not send an Authorization header")
	}

	var body chatRequest
	if err := json.Unmarshal(doer.lastBody, &body); err != nil {
		t.Fatal(err)
	}
	if body.Model != "" {
		t.Errorf("model = %q, want empty so the server uses its loaded model", body.Model)
	}
}
