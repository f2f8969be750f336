package services

import (
	"context"
	"fmt"
	"strings"

	"kitai/models"
)

// ConfigResolver reads an organization's provider key and tool configuration.
type ConfigResolver struct {
	store ConfigStore
}

func NewConfigResolver(store ConfigStore) *ConfigResolver {
	return &ConfigResolver{store: store}
}

// ActiveAPIKey returns the organization's active key for provider.
func (r *ConfigResolver) ActiveAPIKey(ctx context.Context, organizationID, provider string) (string, error) {
	key, err := r.store.GetActiveAPIKey(ctx, organizationID, provider)
	if err != nil {
		return "", fmt.Errorf("loading api key: %w", err)
	}
	if key == nil {
		return "", missingKey(provider)
	}
	if strings.TrimSpace(key.Key) == "" {
		return "", ErrAPIKeyEmpty
	}
	return key.Key, nil
}

// ToolConfig returns the organization's configuration for identity, falling back
// to the global default with the same identity.
func (r *ConfigResolver) ToolConfig(ctx context.Context, organizationID, identity string) (*models.ToolConfiguration, error) {
	cfg, err := r.store.GetToolConfig(ctx, organizationID, identity)
	if err != nil {
		return nil, fmt.Errorf("loading tool config: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg, err = r.store.GetDefaultToolConfig(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("loading default tool config: %w", err)
	}
	if cfg == nil {
		return nil, ErrToolConfigMissing
	}
	return cfg, nil
}
