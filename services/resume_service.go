package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kitai/config"
	"kitai/llm"
	"kitai/logger"
	"kitai/models"
	"kitai/utils"
)

// ResumeOptions tunes the important-news pipeline.
type ResumeOptions struct {
	Identity       string
	BatchSize      int
	MaxSelected    int
	MaxRetries     int
	MaxReduceInput int
	MaxConcurrency int
}

func ResumeOptionsFromConfig(cfg *config.Config) ResumeOptions {
	r := cfg.Resume
	return ResumeOptions{
		Identity:       r.Identity,
		BatchSize:      r.BatchSize,
		MaxSelected:    r.MaxSelected,
		MaxRetries:     r.MaxRetries,
		MaxReduceInput: r.MaxReduceInput,
		MaxConcurrency: r.MaxConcurrency,
	}
}

// Deps are the collaborators shared by the tool services. Resumes and Archiver
// are optional.
type Deps struct {
	Sessions  SessionStore
	Configs   ConfigStore
	Documents DocumentSource
	NewClient llm.Factory
	Sink      logger.Sink
	Resumes   ResumeStore
	Archiver  Archiver
}

// ResumeService runs the important-news summary:
// auth, config, fetch, batch, select, reduce, synthesize.
type ResumeService struct {
	auth    *Authenticator
	configs *ConfigResolver
	deps    Deps
	opts    ResumeOptions
}

func NewResumeService(deps Deps, opts ResumeOptions) *ResumeService {
	if opts.Identity == "" {
		opts.Identity = "resume"
	}
	return &ResumeService{
		auth:    NewAuthenticator(deps.Sessions),
		configs: NewConfigResolver(deps.Configs),
		deps:    deps,
		opts:    opts,
	}
}

// Generate authenticates the caller and runs the pipeline for their organization.
// Handled failures come back as an unsuccessful result with a nil error; provider
// and unexpected failures return the error together with the result and its logs.
func (s *ResumeService) Generate(ctx context.Context, token string, req models.ResumeRequest) (*models.GenerationResult, error) {
	trail := logger.NewTrail(s.deps.Sink, s.opts.Identity)
	trail.Info(ctx, models.EventRequest, "resume generation requested",
		logger.Provider(req.Provider), logger.Model(req.Model))

	profile, err := s.auth.Resolve(ctx, token)
	if err != nil {
		trail.Warn(ctx, models.EventAuth, "authentication failed", logger.Err(err))
		return finish(trail, err)
	}
	trail.SetIdentity(profile.UserID, profile.OrganizationID)
	trail.Info(ctx, models.EventAuth, "user authenticated", logger.Meta("role", profile.Role))

	return s.run(ctx, trail, profile.UserID, profile.OrganizationID, req)
}

// GenerateForOrganization runs the pipeline without a user session, as the scheduler does.
func (s *ResumeService) GenerateForOrganization(ctx context.Context, organizationID string, req models.ResumeRequest) (*models.GenerationResult, error) {
	trail := logger.NewTrail(s.deps.Sink, s.opts.Identity)
	trail.SetIdentity("", organizationID)
	trail.Info(ctx, models.EventRequest, "scheduled resume generation",
		logger.Provider(req.Provider), logger.Model(req.Model))
	return s.run(ctx, trail, "", organizationID, req)
}

func (s *ResumeService) run(ctx context.Context, trail *logger.Trail, userID, organizationID string, req models.ResumeRequest) (*models.GenerationResult, error) {
	start := time.Now()

	if !llm.IsSupported(req.Provider) {
		err := &llm.UnsupportedProviderError{Provider: req.Provider}
		trail.Error(ctx, models.EventConfig, "unsupported provider", logger.Err(err))
		return finish(trail, err)
	}
	if req.Model == "" {
		return finish(trail, ErrModelMissing)
	}

	apiKey, err := s.configs.ActiveAPIKey(ctx, organizationID, req.Provider)
	if err != nil {
		trail.Error(ctx, models.EventConfig, "api key unavailable", logger.Provider(req.Provider), logger.Err(err))
		return finish(trail, err)
	}

	tool, err := s.configs.ToolConfig(ctx, organizationID, s.opts.Identity)
	if err != nil {
		trail.Error(ctx, models.EventConfig, "tool configuration unavailable", logger.Err(err))
		return finish(trail, err)
	}
	trail.Info(ctx, models.EventConfig, "tool configuration loaded",
		logger.Meta("default", tool.IsDefault()),
		logger.Meta("prompts", len(tool.Prompts)),
		logger.Meta("temperature", tool.Temperature),
		logger.Meta("top_p", tool.TopP))

	docs, err := s.documents(ctx, organizationID, req)
	if err != nil {
		trail.Error(ctx, models.EventContent, "fetching documents failed", logger.Err(err))
		return finish(trail, fmt.Errorf("%w: %v", ErrContentSource, err))
	}
	if len(docs) == 0 {
		trail.Warn(ctx, models.EventContent, "no documents in range")
		return finish(trail, ErrNoDocuments)
	}

	finalists, text, err := s.pipeline(ctx, trail, req, apiKey, tool, docs)
	if err != nil {
		return finish(trail, err)
	}

	record := &models.ResumeRecord{
		OrganizationID: organizationID,
		UserID:         userID,
		Provider:       req.Provider,
		Model:          req.Model,
		Content:        text,
		SelectedLinks:  links(finalists),
		RequestID:      trail.RequestID(),
		CreatedAt:      time.Now().UTC(),
	}
	s.persist(ctx, trail, record)

	trail.Info(ctx, models.EventRequest, "resume generation completed",
		logger.Count(len(finalists)), logger.Duration(time.Since(start)))

	return &models.GenerationResult{
		Success:  true,
		Resume:   text,
		Selected: finalists,
		Logs:     trail.Events(),
	}, nil
}

func (s *ResumeService) pipeline(ctx context.Context, trail *logger.Trail, req models.ResumeRequest, apiKey string, tool *models.ToolConfiguration, docs []models.SourceDocument) ([]models.FinalSelection, string, error) {
	selector, err := NewSelector(s.deps.NewClient, req.Provider, apiKey, tool, SelectorOptions{
		MaxSelected: s.opts.MaxSelected,
		MaxRetries:  s.opts.MaxRetries,
		Concurrency: s.opts.MaxConcurrency,
	}, trail)
	if err != nil {
		return nil, "", err
	}
	synthesizer, err := NewSynthesizer(s.deps.NewClient, req.Provider, apiKey, req.Model, tool, trail)
	if err != nil {
		return nil, "", err
	}

	batches := BuildBatches(docs, s.opts.BatchSize)
	trail.Info(ctx, models.EventContent, "documents batched",
		logger.Count(len(docs)), logger.Meta("batches", len(batches)), logger.Model(selector.Model()))

	index := IndexByLink(ctx, docs, trail)
	perBatch, err := selector.SelectAll(ctx, batches)
	if err != nil {
		return nil, "", err
	}

	finalists, err := NewReducer(selector, s.opts.BatchSize, s.opts.MaxReduceInput, trail).Reduce(ctx, index, perBatch)
	if err != nil {
		if errors.Is(err, ErrNoSelection) {
			trail.Warn(ctx, models.EventSelection, "no valid finalists")
		}
		return nil, "", err
	}

	text, err := synthesizer.Synthesize(ctx, finalists)
	if err != nil {
		return nil, "", err
	}
	return finalists, text, nil
}

func (s *ResumeService) documents(ctx context.Context, organizationID string, req models.ResumeRequest) ([]models.SourceDocument, error) {
	if len(req.Posts) > 0 {
		return req.Posts, nil
	}
	if s.deps.Documents == nil {
		return nil, nil
	}
	return s.deps.Documents.FetchDocuments(ctx, organizationID, req.From, req.To)
}

// persist stores and archives the resume. Failures are logged only.
func (s *ResumeService) persist(ctx context.Context, trail *logger.Trail, record *models.ResumeRecord) {
	if s.deps.Resumes != nil {
		if err := s.deps.Resumes.SaveResume(ctx, record); err != nil {
			trail.Warn(ctx, models.EventRequest, "saving resume failed", logger.Err(err))
		}
	}
	if s.deps.Archiver != nil {
		if err := s.deps.Archiver.Archive(ctx, record); err != nil {
			trail.Warn(ctx, models.EventRequest, "archiving resume failed", logger.Err(err))
		}
	}
}

// finish converts err into the failed result, returning err itself only when it
// is not one of the handled failure categories.
func finish(trail *logger.Trail, err error) (*models.GenerationResult, error) {
	result := failed(trail, err)
	if IsHandledFailure(err) {
		return result, nil
	}
	return result, err
}

func links(finalists []models.FinalSelection) []string {
	out := make([]string, 0, len(finalists))
	for _, f := range finalists {
		out = append(out, f.Link)
	}
	return utils.DeduplicateSlice(out)
}
