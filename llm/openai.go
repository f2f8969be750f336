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

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	TopP           *float64              `json:"top_p,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func newOpenAIClient(apiKey string, opts Options) *openAIClient {
	baseURL := opts.OpenAIBaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient(opts, opts.OpenAITimeout),
	}
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }

func (c *openAIClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	return c.complete(ctx, openAIRequest{
		Model:       req.Model,
		Messages:    messages(req.System, req.Prompt),
		Temperature: &req.Temperature,
		TopP:        topP(req.TopP),
	})
}

func (c *openAIClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	content, err := c.complete(ctx, openAIRequest{
		Model:       req.Model,
		Messages:    messages(req.System, req.Prompt),
		Temperature: &req.Temperature,
		TopP:        topP(req.TopP),
		ResponseFormat: &openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   name,
				Strict: true,
				Schema: req.Schema,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return parseJSONOutput(content)
}

func (c *openAIClient) complete(ctx context.Context, body openAIRequest) (string, error) {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	logger.Debug("openai response", "model", body.Model, "status_code", resp.StatusCode,
		"response_size", len(respBody), "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: preview(string(respBody), 500)}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	choice := parsed.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("openai refused the request: %s", choice.Message.Refusal)
	}

	logger.Debug("openai usage",
		"tokens_prompt", parsed.Usage.PromptTokens,
		"tokens_completion", parsed.Usage.CompletionTokens,
		"finish_reason", choice.FinishReason)

	return choice.Message.Content, nil
}

func messages(system, prompt string) []openAIMessage {
	out := make([]openAIMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		out = append(out, openAIMessage{Role: "system", Content: system})
	}
	return append(out, openAIMessage{Role: "user", Content: prompt})
}

// topP omits the parameter when it is unset or at the provider default.
func topP(v float64) *float64 {
	if v <= 0 || v >= 1 {
		return nil
	}
	return &v
}
