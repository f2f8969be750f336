package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"kitai/logger"
)

type googleClient struct {
	client *genai.Client
}

func newGoogleClient(apiKey string, opts Options) (*googleClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(opts, opts.GoogleTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &googleClient{client: client}, nil
}

func (c *googleClient) Provider() string { return ProviderGoogle }

func (c *googleClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	cfg := generationConfig(req.System, req.Temperature, req.TopP)
	return c.generate(ctx, req.Model, req.Prompt, cfg)
}

func (c *googleClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	cfg := generationConfig(req.System, req.Temperature, req.TopP)
	cfg.ResponseMIMEType = "application/json"
	if len(req.Schema) > 0 {
		cfg.ResponseJsonSchema = req.Schema
	}
	text, err := c.generate(ctx, req.Model, req.Prompt, cfg)
	if err != nil {
		return nil, err
	}
	return parseJSONOutput(text)
}

func (c *googleClient) generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Provider: ProviderGoogle, StatusCode: apiErr.Code, Body: preview(apiErr.Message, 500)}
		}
		return "", fmt.Errorf("gemini request: %w", err)
	}
	logger.Debug("gemini response", "model", model, "duration_ms", time.Since(start).Milliseconds())

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in gemini response")
	}
	return text, nil
}

func generationConfig(system string, temperature, top float64) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if p := topP(top); p != nil {
		cfg.TopP = genai.Ptr(float32(*p))
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}
