// Package llm is a small multi-provider chat-completion client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gorewood/autocommit/internal/output"
)

// Provider names a completion API.
type Provider string

// Supported providers.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderLocal     Provider = "local"
)

// Defaults applied by New.
const (
	DefaultProvider  = ProviderOpenAI
	DefaultModel     = "gpt-3.5-turbo"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
)

// ErrEmptyResponse is returned when a provider answers without any candidate.
var ErrEmptyResponse = errors.New("completion returned no candidates")

// ErrRejected marks a request the provider refused because of what it
// contained. Sending a different request may still succeed.
var ErrRejected = errors.New("completion request rejected")

// Request is one completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int // 0 selects DefaultMaxTokens
}

// Response is the first candidate of a completion.
type Response struct {
	Content string
	Model   string
}

// HTTPDoer is the HTTP surface the client needs. Tests inject fakes.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configure a Client.
type Options struct {
	Provider Provider
	Model    string
	// APIKey overrides the provider's environment variable.
	APIKey string
	// BaseURL overrides the provider endpoint root.
	BaseURL string
	// RequestsPerSecond limits outgoing calls; 0 disables limiting.
	RequestsPerSecond float64
	Timeout           time.Duration
	HTTP              HTTPDoer
}

// Client sends completion requests to one provider and model.
type Client struct {
	provider   Provider
	model      string
	apiKey     string
	baseURL    string
	limiter    *rate.Limiter
	httpClient HTTPDoer
}

// New creates a Client. The provider is inferred from the model name when
// unset, and model aliases such as "haiku" or "flash" are expanded.
func New(opts Options) (*Client, error) {
	provider, model := Resolve(opts.Provider, opts.Model)
	if !isSupported(provider) {
		return nil, output.NewUserError(fmt.Sprintf("unsupported provider: %s", provider))
	}

	apiKey, err := resolveAPIKey(provider, opts.APIKey)
	if err != nil {
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(provider)
	}

	httpClient := opts.HTTP
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	client := &Client{
		provider:   provider,
		model:      model,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	if opts.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return client, nil
}

// Resolve returns the provider and model New would use. The provider is
// not validated.
func Resolve(provider Provider, model string) (Provider, string) {
	if model == "" && provider == "" {
		return DefaultProvider, DefaultModel
	}
	if provider == "" {
		provider, model = parseProviderPrefix(model)
	}
	if provider == "" {
		provider = inferProvider(model)
	}
	if model == "" {
		model = defaultModels[provider]
	}
	return provider, resolveModelAlias(model, provider)
}

// Provider returns the resolved provider.
func (c *Client) Provider() Provider { return c.provider }

// Model returns the resolved model name.
func (c *Client) Model() string { return c.model }

// Complete sends req and returns the first candidate. A response without
// candidates fails with ErrEmptyResponse.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	switch c.provider {
	case ProviderOpenAI:
		return c.completeChat(ctx, req, map[string]string{"Authorization": "Bearer " + c.apiKey})
	case ProviderLocal:
		return c.completeChat(ctx, req, nil)
	case ProviderAnthropic:
		return c.completeAnthropic(ctx, req)
	case ProviderGoogle:
		return c.completeGoogle(ctx, req)
	default:
		return nil, output.NewUserError(fmt.Sprintf("unsupported provider: %s", c.provider))
	}
}

var providerPrefixes = []struct {
	prefix   string
	provider Provider
	family   bool // part of real model names, stripped only before an alias
}{
	{"openai-", ProviderOpenAI, false},
	{"anthropic-", ProviderAnthropic, false},
	{"google-", ProviderGoogle, false},
	{"local-", ProviderLocal, false},
	{"claude-", ProviderAnthropic, true},
	{"gemini-", ProviderGoogle, true},
}

// parseProviderPrefix splits shorthand like "claude-haiku" or
// "openai-gpt-4o" into provider and model. "claude-3-opus" keeps its full
// name because the family prefix belongs to the model.
func parseProviderPrefix(model string) (Provider, string) {
	lower := strings.ToLower(model)
	for _, p := range providerPrefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		rest := model[len(p.prefix):]
		if !p.family {
			return p.provider, rest
		}
		if _, isAlias := modelAliases[p.provider][strings.ToLower(rest)]; isAlias {
			return p.provider, rest
		}
		return p.provider, model
	}
	return "", model
}

// providerHints are checked in order; the first substring match wins.
var providerHints = []struct {
	substring string
	provider  Provider
}{
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"claude", ProviderAnthropic},
	{"haiku", ProviderAnthropic},
	{"sonnet", ProviderAnthropic},
	{"opus", ProviderAnthropic},
	{"gemini", ProviderGoogle},
	{"flash", ProviderGoogle},
	{"llama", ProviderLocal},
	{"qwen", ProviderLocal},
	{"mistral", ProviderLocal},
}

func inferProvider(model string) Provider {
	lower := strings.ToLower(model)
	for _, h := range providerHints {
		if strings.Contains(lower, h.substring) {
			return h.provider
		}
	}
	return DefaultProvider
}

var modelAliases = map[Provider]map[string]string{
	ProviderOpenAI: {
		"turbo": "gpt-3.5-turbo",
		"mini":  "gpt-4o-mini",
		"nano":  "gpt-5-nano",
	},
	ProviderAnthropic: {
		"haiku":  "claude-haiku-4-5-20251001",
		"sonnet": "claude-sonnet-4-5-20250929",
	},
	ProviderGoogle: {
		"flash":      "gemini-2.5-flash",
		"flash-lite": "gemini-2.5-flash-lite",
	},
}

var defaultModels = map[Provider]string{
	ProviderOpenAI:    DefaultModel,
	ProviderAnthropic: "claude-haiku-4-5-20251001",
	ProviderGoogle:    "gemini-2.5-flash",
	ProviderLocal:     "",
}

func resolveModelAlias(model string, provider Provider) string {
	if resolved, ok := modelAliases[provider][strings.ToLower(model)]; ok {
		return resolved
	}
	return model
}

var envVarForProvider = map[Provider]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGoogle:    "GOOGLE_API_KEY",
	ProviderLocal:     "",
}

func isSupported(provider Provider) bool {
	_, ok := envVarForProvider[provider]
	return ok
}

// APIKeyEnvVar returns the environment variable holding provider's key, or
// "" when the provider needs none.
func APIKeyEnvVar(provider Provider) string {
	return envVarForProvider[provider]
}

func resolveAPIKey(provider Provider, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	envVar := envVarForProvider[provider]
	if envVar == "" {
		return "", nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", output.NewUserError("no API key: set api_key in the config or " + envVar + " in the environment")
}

func defaultBaseURL(provider Provider) string {
	switch provider {
	case ProviderAnthropic:
		return "https://api.anthropic.com/v1"
	case ProviderGoogle:
		return "https://generativelanguage.googleapis.com/v1beta"
	case ProviderLocal:
		if url := os.Getenv("LOCAL_LLM_URL"); url != "" {
			return url
		}
		return "http://localhost:1234/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// SupportedProviders lists provider names for help text and validation.
func SupportedProviders() []string {
	return []string{string(ProviderOpenAI), string(ProviderAnthropic), string(ProviderGoogle), string(ProviderLocal)}
}

// postJSON sends body to url and returns the raw response body.
func (c *Client) postJSON(ctx context.Context, url string, body any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("completion request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to read completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Keep error bodies short; they may echo request content.
		errBody := string(respBody)
		if len(errBody) > 500 {
			errBody = errBody[:500]
		}
		msg := fmt.Sprintf("API error (status %d): %s", resp.StatusCode, errBody)
		if rejected(resp.StatusCode) {
			return nil, output.NewSystemErrorWithCause(msg, ErrRejected)
		}
		return nil, output.NewSystemError(msg)
	}
	return respBody, nil
}

// rejected reports client errors caused by the request body. Credential,
// endpoint, timeout and rate-limit statuses affect every request instead.
func rejected(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound,
		http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}

// decode unmarshals a provider response body.
func decode(respBody []byte, v any) error {
	if err := json.Unmarshal(respBody, v); err != nil {
		return output.NewSystemErrorWithCause("failed to parse completion response", err)
	}
	return nil
}

type apiError struct {
	Message string `json:"message"`
}

func providerError(e *apiError) error {
	return output.NewSystemError("API error: " + e.Message)
}
