package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kitai/llm"
	"kitai/logger"
	"kitai/models"
)

const defaultSelectionPrompt = `Eres el editor jefe de un medio digital. A continuación tienes una lista de noticias separadas por "---".
Selecciona como máximo %d noticias, las más importantes por su relevancia informativa e impacto.
Devuelve para cada una su enlace exacto tal como aparece en la lista, su título y una razón breve.`

// selectionSchema builds the JSON schema of {selected:[{link,title,reason}]}.
func selectionSchema(maxItems int) json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selected": map[string]any{
				"type":     "array",
				"maxItems": maxItems,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"link":   map[string]any{"type": "string"},
						"title":  map[string]any{"type": "string"},
						"reason": map[string]any{"type": "string"},
					},
					"required":             []string{"link", "title", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"selected"},
		"additionalProperties": false,
	}
	raw, _ := json.Marshal(schema)
	return raw
}

// Selector asks the mini model to pick the most important entries of a text.
type Selector struct {
	client      llm.Client
	model       string
	tool        *models.ToolConfiguration
	maxSelected int
	maxRetries  int
	concurrency int
	trail       *logger.Trail
}

// SelectorOptions are the per-run knobs of a Selector.
type SelectorOptions struct {
	MaxSelected int
	MaxRetries  int
	Concurrency int
}

// NewSelector resolves the provider's mini model. An unknown provider fails
// here, before any client is built.
func NewSelector(newClient llm.Factory, provider, apiKey string, tool *models.ToolConfiguration, opts SelectorOptions, trail *logger.Trail) (*Selector, error) {
	model, err := llm.MiniModel(provider)
	if err != nil {
		return nil, err
	}
	client, err := newClient(provider, apiKey)
	if err != nil {
		return nil, err
	}
	if opts.MaxSelected <= 0 {
		opts.MaxSelected = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Selector{
		client:      client,
		model:       model,
		tool:        tool,
		maxSelected: opts.MaxSelected,
		maxRetries:  opts.MaxRetries,
		concurrency: opts.Concurrency,
		trail:       trail,
	}, nil
}

// Model returns the mini model used for selection.
func (s *Selector) Model() string {
	return s.model
}

// Select runs one selection call over text. An empty text selects nothing
// without calling the provider.
func (s *Selector) Select(ctx context.Context, batchIndex int, text string) ([]models.SelectionCandidate, error) {
	if text == "" {
		s.trail.Info(ctx, models.EventSelection, "batch has no content, skipping selection", batchField(batchIndex))
		return nil, nil
	}

	s.trail.Info(ctx, models.EventSelection, "selection started",
		logger.Provider(s.client.Provider()), logger.Model(s.model), batchField(batchIndex),
		logger.Meta("text_length", len(text)))

	start := time.Now()
	var out models.SelectionResult
	err := llm.GenerateObjectInto(ctx, s.client, s.request(text), &out, s.maxRetries)
	if err != nil {
		s.trail.Error(ctx, models.EventSelection, "selection failed",
			logger.Provider(s.client.Provider()), logger.Model(s.model), batchField(batchIndex),
			logger.Duration(time.Since(start)), logger.Err(err))
		return nil, fmt.Errorf("selection batch %d: %w", batchIndex, err)
	}

	selected := out.Selected
	if len(selected) > s.maxSelected {
		s.trail.Warn(ctx, models.EventSelection, "model returned more items than allowed, truncating",
			batchField(batchIndex), logger.Count(len(selected)))
		selected = selected[:s.maxSelected]
	}

	s.trail.Info(ctx, models.EventSelection, "selection completed",
		logger.Provider(s.client.Provider()), logger.Model(s.model), batchField(batchIndex),
		logger.Count(len(selected)), logger.Duration(time.Since(start)))
	return selected, nil
}

// SelectAll runs Select on every batch concurrently and returns the candidates
// in batch order. The first failure cancels the remaining calls.
func (s *Selector) SelectAll(ctx context.Context, batches []Batch) ([][]models.SelectionCandidate, error) {
	results := make([][]models.SelectionCandidate, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, b := range batches {
		g.Go(func() error {
			picked, err := s.Select(gctx, b.Index, b.Text)
			if err != nil {
				return err
			}
			results[i] = picked
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Selector) request(text string) llm.ObjectRequest {
	instruction := s.tool.SelectionPrompt()
	if instruction == "" {
		instruction = fmt.Sprintf(defaultSelectionPrompt, s.maxSelected)
	}
	schema := s.tool.Schema
	if len(schema) == 0 {
		schema = selectionSchema(s.maxSelected)
	}
	return llm.ObjectRequest{
		Model:       s.model,
		System:      instruction,
		Prompt:      text,
		Temperature: s.tool.Temperature,
		TopP:        s.tool.TopP,
		SchemaName:  "news_selection",
		Schema:      schema,
	}
}

// finalPass is the batch index of the reduce pass.
const finalPass = -1

func batchField(index int) logger.Field {
	if index == finalPass {
		return logger.Meta("pass", "final")
	}
	return logger.Batch(index)
}
