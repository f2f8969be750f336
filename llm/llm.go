// Package llm adapts the hosted model providers (OpenAI, Anthropic, Google)
// behind one client interface with free-text and schema-constrained calls.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kitai/config"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// miniModels maps each provider to the cheaper model used for intermediate selection steps.
var miniModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGoogle:    "gemini-2.0-flash-lite",
}

// TextRequest is a plain text generation call.
type TextRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	TopP        float64
}

// ObjectRequest is a generation constrained to a JSON schema.
type ObjectRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	TopP        float64
	SchemaName  string
	Schema      json.RawMessage
}

// Client is implemented by every provider adapter.
type Client interface {
	Provider() string
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
}

// UnsupportedProviderError is returned for provider names outside openai|anthropic|google.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %q", e.Provider)
}

// UpstreamError is a failed provider call that reached the provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ErrInvalidOutput marks a structured response that does not parse as JSON.
var ErrInvalidOutput = errors.New("model returned invalid structured output")

// IsSupported reports whether provider is one of the known providers.
func IsSupported(provider string) bool {
	_, ok := miniModels[normalize(provider)]
	return ok
}

// MiniModel resolves the cheaper selection model for provider.
func MiniModel(provider string) (string, error) {
	model, ok := miniModels[normalize(provider)]
	if !ok || model == "" {
		return "", &UnsupportedProviderError{Provider: provider}
	}
	return model, nil
}

// Options carries provider endpoints and timeouts.
type Options struct {
	OpenAIBaseURL      string
	OpenAITimeout      time.Duration
	AnthropicBaseURL   string
	AnthropicVersion   string
	AnthropicMaxTokens int
	AnthropicTimeout   time.Duration
	GoogleTimeout      time.Duration
	HTTPClient         *http.Client // overrides the per-provider clients when set
}

// OptionsFromConfig builds Options from the providers section.
func OptionsFromConfig(cfg *config.Config) Options {
	p := cfg.Providers
	return Options{
		OpenAIBaseURL:      p.OpenAI.BaseURL,
		OpenAITimeout:      time.Duration(p.OpenAI.TimeoutSec) * time.Second,
		AnthropicBaseURL:   p.Anthropic.BaseURL,
		AnthropicVersion:   p.Anthropic.Version,
		AnthropicMaxTokens: p.Anthropic.MaxTokens,
		AnthropicTimeout:   time.Duration(p.Anthropic.TimeoutSec) * time.Second,
		GoogleTimeout:      time.Duration(p.Google.TimeoutSec) * time.Second,
	}
}

// Factory builds a client for a provider and API key.
type Factory func(provider, apiKey string) (Client, error)

// NewFactory returns a Factory bound to opts.
func NewFactory(opts Options) Factory {
	return func(provider, apiKey string) (Client, error) {
		return New(provider, apiKey, opts)
	}
}

// New dispatches on the provider name. No network call happens here.
func New(provider, apiKey string, opts Options) (Client, error) {
	switch normalize(provider) {
	case ProviderOpenAI:
		return newOpenAIClient(apiKey, opts), nil
	case ProviderAnthropic:
		return newAnthropicClient(apiKey, opts), nil
	case ProviderGoogle:
		return newGoogleClient(apiKey, opts)
	default:
		return nil, &UnsupportedProviderError{Provider: provider}
	}
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func httpClient(opts Options, timeout time.Duration) *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
