package services

import (
	"context"
	"strings"
	"time"

	"kitai/llm"
	"kitai/logger"
	"kitai/models"
)

// ToolService runs the single-call tools (summarizer, thread, lie detector,
// newsletter): every prompt of the tool followed by the user's input.
type ToolService struct {
	auth    *Authenticator
	configs *ConfigResolver
	deps    Deps
}

func NewToolService(deps Deps) *ToolService {
	return &ToolService{
		auth:    NewAuthenticator(deps.Sessions),
		configs: NewConfigResolver(deps.Configs),
		deps:    deps,
	}
}

// BuildToolPrompt joins the prompts in order and appends the input.
func BuildToolPrompt(tool *models.ToolConfiguration, input string) string {
	parts := make([]string, 0, len(tool.Prompts)+1)
	for _, p := range tool.Prompts {
		if c := strings.TrimSpace(p.Content); c != "" {
			parts = append(parts, c)
		}
	}
	parts = append(parts, strings.TrimSpace(input))
	return strings.Join(parts, "\n\n")
}

func (s *ToolService) Run(ctx context.Context, token, identity string, req models.ToolRequest) (*models.GenerationResult, error) {
	trail := logger.NewTrail(s.deps.Sink, identity)
	trail.Info(ctx, models.EventRequest, "tool run requested",
		logger.Provider(req.Provider), logger.Model(req.Model))

	profile, err := s.auth.Resolve(ctx, token)
	if err != nil {
		trail.Warn(ctx, models.EventAuth, "authentication failed", logger.Err(err))
		return finish(trail, err)
	}
	trail.SetIdentity(profile.UserID, profile.OrganizationID)

	if !llm.IsSupported(req.Provider) {
		err := &llm.UnsupportedProviderError{Provider: req.Provider}
		trail.Error(ctx, models.EventConfig, "unsupported provider", logger.Err(err))
		return finish(trail, err)
	}
	if req.Model == "" {
		return finish(trail, ErrModelMissing)
	}
	if strings.TrimSpace(req.Input) == "" {
		return finish(trail, ErrEmptyInput)
	}

	apiKey, err := s.configs.ActiveAPIKey(ctx, profile.OrganizationID, req.Provider)
	if err != nil {
		trail.Error(ctx, models.EventConfig, "api key unavailable", logger.Provider(req.Provider), logger.Err(err))
		return finish(trail, err)
	}
	tool, err := s.configs.ToolConfig(ctx, profile.OrganizationID, identity)
	if err != nil {
		trail.Error(ctx, models.EventConfig, "tool configuration unavailable", logger.Err(err))
		return finish(trail, err)
	}
	trail.Info(ctx, models.EventConfig, "tool configuration loaded", logger.Meta("default", tool.IsDefault()))

	client, err := s.deps.NewClient(req.Provider, apiKey)
	if err != nil {
		return finish(trail, err)
	}

	start := time.Now()
	text, err := client.GenerateText(ctx, llm.TextRequest{
		Model:       req.Model,
		Prompt:      BuildToolPrompt(tool, req.Input),
		Temperature: tool.Temperature,
		TopP:        tool.TopP,
	})
	if err != nil {
		trail.Error(ctx, models.EventGeneration, "generation failed",
			logger.Provider(req.Provider), logger.Model(req.Model), logger.Duration(time.Since(start)), logger.Err(err))
		return finish(trail, err)
	}
	trail.Info(ctx, models.EventGeneration, "generation completed",
		logger.Provider(req.Provider), logger.Model(req.Model), logger.Duration(time.Since(start)),
		logger.Meta("output_length", len(text)))

	return &models.GenerationResult{Success: true, Resume: text, Logs: trail.Events()}, nil
}
