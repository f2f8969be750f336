package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kitai/llm"
	"kitai/logger"
	"kitai/models"
)

const synthesisDateLayout = "02/01/2006 15:04"

// BuildPrompt appends one block per finalist to the primary instruction prompt.
func BuildPrompt(instruction string, finalists []models.FinalSelection) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instruction))
	for _, f := range finalists {
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "Título: %s\n", f.Title)
		fmt.Fprintf(&sb, "Fecha: %s\n", formatDate(f.Date))
		fmt.Fprintf(&sb, "Enlace: %s\n", f.Link)
		fmt.Fprintf(&sb, "Contenido: %s", f.Content)
	}
	return sb.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "sin fecha"
	}
	return t.Format(synthesisDateLayout)
}

// Synthesizer writes the deliverable text from the final selection with the
// caller's full model.
type Synthesizer struct {
	client llm.Client
	model  string
	tool   *models.ToolConfiguration
	trail  *logger.Trail
}

// NewSynthesizer fails with an UnsupportedProviderError for unknown providers
// before building a client.
func NewSynthesizer(newClient llm.Factory, provider, apiKey, model string, tool *models.ToolConfiguration, trail *logger.Trail) (*Synthesizer, error) {
	if !llm.IsSupported(provider) {
		return nil, &llm.UnsupportedProviderError{Provider: provider}
	}
	client, err := newClient(provider, apiKey)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{client: client, model: model, tool: tool, trail: trail}, nil
}

// Synthesize returns the model's text verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, finalists []models.FinalSelection) (string, error) {
	prompt := BuildPrompt(s.tool.PrimaryPrompt(), finalists)

	s.trail.Info(ctx, models.EventGeneration, "synthesis started",
		logger.Provider(s.client.Provider()), logger.Model(s.model),
		logger.Count(len(finalists)), logger.Meta("prompt_length", len(prompt)))

	start := time.Now()
	text, err := s.client.GenerateText(ctx, llm.TextRequest{
		Model:       s.model,
		Prompt:      prompt,
		Temperature: s.tool.Temperature,
		TopP:        s.tool.TopP,
	})
	if err != nil {
		s.trail.Error(ctx, models.EventGeneration, "synthesis failed",
			logger.Provider(s.client.Provider()), logger.Model(s.model),
			logger.Duration(time.Since(start)), logger.Err(err))
		return "", err
	}

	s.trail.Info(ctx, models.EventGeneration, "synthesis completed",
		logger.Provider(s.client.Provider()), logger.Model(s.model),
		logger.Duration(time.Since(start)), logger.Meta("output_length", len(text)))
	return text, nil
}
