package repository

import (
	"context"

	"kitai/models"
)

// Store exposes the package functions as the method sets the services consume.
type Store struct{}

func (Store) GetSessionUser(ctx context.Context, tokenHash string) (string, error) {
	return GetSessionUser(ctx, tokenHash)
}

func (Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return GetProfile(ctx, userID)
}

func (Store) GetActiveAPIKey(ctx context.Context, organizationID, provider string) (*models.APIKey, error) {
	return GetActiveAPIKey(ctx, organizationID, provider)
}

func (Store) GetToolConfig(ctx context.Context, organizationID, identity string) (*models.ToolConfiguration, error) {
	return GetToolConfig(ctx, organizationID, identity)
}

func (Store) GetDefaultToolConfig(ctx context.Context, identity string) (*models.ToolConfiguration, error) {
	return GetDefaultToolConfig(ctx, identity)
}

func (Store) GetOrganization(ctx context.Context, organizationID string) (*models.Organization, error) {
	return GetOrganization(ctx, organizationID)
}

func (Store) SaveResume(ctx context.Context, record *models.ResumeRecord) error {
	return SaveResume(ctx, record)
}

func (Store) SaveLogEvent(ctx context.Context, ev models.LogEvent) error {
	return SaveLogEvent(ctx, ev)
}

func (Store) ListEnabledSchedules(ctx context.Context) ([]models.Schedule, error) {
	return ListEnabledSchedules(ctx)
}
