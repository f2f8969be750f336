package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kitai/logger"
)

const (
	defaultAnthropicVersion = "2023-06-01"
	structuredToolName      = "emit_structured_output"
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  *anthropicChoice   `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text,omitempty"`
		Name  string          `json:"name,omitempty"`
		Input json.RawMessage `json:"input,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicClient struct {
	apiKey     string
	baseURL    string
	version    string
	maxTokens  int
	httpClient *http.Client
}

func newAnthropicClient(apiKey string, opts Options) *anthropicClient {
	baseURL := opts.AnthropicBaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	version := opts.AnthropicVersion
	if version == "" {
		version = defaultAnthropicVersion
	}
	maxTokens := opts.AnthropicMaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &anthropicClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
		maxTokens:  maxTokens,
		httpClient: httpClient(opts, opts.AnthropicTimeout),
	}
}

func (c *anthropicClient) Provider() string { return ProviderAnthropic }

func (c *anthropicClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	resp, err := c.send(ctx, anthropicRequest{
		Model:       req.Model,
		MaxTokens:   c.maxTokens,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Temperature: &req.Temperature,
		TopP:        topP(req.TopP),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in anthropic response")
	}
	return sb.String(), nil
}

// GenerateObject forces a single tool call whose input schema is the requested schema.
func (c *anthropicClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	resp, err := c.send(ctx, anthropicRequest{
		Model:       req.Model,
		MaxTokens:   c.maxTokens,
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Temperature: &req.Temperature,
		TopP:        topP(req.TopP),
		Tools: []anthropicTool{{
			Name:        structuredToolName,
			Description: "Respond with an object matching the schema.",
			InputSchema: req.Schema,
		}},
		ToolChoice: &anthropicChoice{Type: "tool", Name: structuredToolName},
	})
	if err != nil {
		return nil, err
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && len(block.Input) > 0 {
			if !json.Valid(block.Input) {
				return nil, fmt.Errorf("%w: tool input", ErrInvalidOutput)
			}
			return block.Input, nil
		}
	}
	// some models answer in text despite the forced tool
	for _, block := range resp.Content {
		if block.Type == "text" {
			return parseJSONOutput(block.Text)
		}
	}
	return nil, fmt.Errorf("%w: no tool_use block", ErrInvalidOutput)
}

func (c *anthropicClient) send(ctx context.Context, body anthropicRequest) (*anthropicResponse, error) {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", c.version)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	logger.Debug("anthropic response", "model", body.Model, "status_code", resp.StatusCode,
		"response_size", len(respBody), "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Provider: ProviderAnthropic, StatusCode: resp.StatusCode, Body: preview(string(respBody), 500)}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("no content in anthropic response")
	}
	logger.Debug("anthropic usage",
		"tokens_input", parsed.Usage.InputTokens,
		"tokens_output", parsed.Usage.OutputTokens,
		"stop_reason", parsed.StopReason)
	return &parsed, nil
}
