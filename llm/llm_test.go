package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiniModel(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "gpt-4o-mini"},
		{"anthropic", "claude-3-5-haiku-latest"},
		{"google", "gemini-2.0-flash-lite"},
		{" OpenAI ", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		got, err := MiniModel(tt.provider)
		require.NoError(t, err, tt.provider)
		assert.Equal(t, tt.want, got)
	}

	_, err := MiniModel("mistral")
	var unsupported *UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "mistral", unsupported.Provider)
}

func TestNewDispatchesOnProvider(t *testing.T) {
	for _, p := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle} {
		c, err := New(p, "key", Options{})
		require.NoError(t, err, p)
		assert.Equal(t, p, c.Provider())
	}

	_, err := New("cohere", "key", Options{})
	var unsupported *UnsupportedProviderError
	assert.ErrorAs(t, err, &unsupported)
	assert.False(t, IsSupported("cohere"))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(`Here you go: {"a":1} thanks`))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON("```json\n{\"a\":{\"b\":2}}\n```"))
	assert.Equal(t, "no json", extractJSON("  no json "))

	_, err := parseJSONOutput("not json at all")
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

type scriptedClient struct {
	replies []func() (json.RawMessage, error)
	calls   int
}

func (s *scriptedClient) Provider() string { return "openai" }

func (s *scriptedClient) GenerateText(context.Context, TextRequest) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedClient) GenerateObject(context.Context, ObjectRequest) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i]()
}

func reply(raw string) func() (json.RawMessage, error) {
	return func() (json.RawMessage, error) { return json.RawMessage(raw), nil }
}

func failure(err error) func() (json.RawMessage, error) {
	return func() (json.RawMessage, error) { return nil, err }
}

func noBackoff(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = 0
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestGenerateObjectIntoRetries(t *testing.T) {
	noBackoff(t)

	c := &scriptedClient{replies: []func() (json.RawMessage, error){
		failure(&UpstreamError{Provider: "openai", StatusCode: 429}),
		failure(&UpstreamError{Provider: "openai", StatusCode: 503}),
		reply(`[not an object`),
		reply(`{"value":"ok"}`),
	}}

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, GenerateObjectInto(context.Background(), c, ObjectRequest{}, &out, 5))
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, 4, c.calls)
}

func TestGenerateObjectIntoStopsOnClientError(t *testing.T) {
	noBackoff(t)

	c := &scriptedClient{replies: []func() (json.RawMessage, error){
		failure(&UpstreamError{Provider: "openai", StatusCode: 401, Body: "bad key"}),
	}}
	var out map[string]any
	err := GenerateObjectInto(context.Background(), c, ObjectRequest{}, &out, 5)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 401, upstream.StatusCode)
	assert.Equal(t, 1, c.calls)
}

func TestGenerateObjectIntoGivesUp(t *testing.T) {
	noBackoff(t)

	c := &scriptedClient{replies: []func() (json.RawMessage, error){
		failure(fmt.Errorf("sending request: %w", errors.New("connection reset"))),
	}}
	var out map[string]any
	err := GenerateObjectInto(context.Background(), c, ObjectRequest{}, &out, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, c.calls)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(&UnsupportedProviderError{Provider: "x"}))
	assert.False(t, Retryable(&UpstreamError{StatusCode: 400}))
	assert.True(t, Retryable(&UpstreamError{StatusCode: 429}))
	assert.True(t, Retryable(&UpstreamError{StatusCode: 502}))
	assert.True(t, Retryable(ErrInvalidOutput))
}
