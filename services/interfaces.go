package services

import (
	"context"
	"time"

	"kitai/models"
)

// SessionStore resolves session tokens and user profiles.
type SessionStore interface {
	// GetSessionUser returns the user owning a non-expired session, or "" when none matches.
	GetSessionUser(ctx context.Context, tokenHash string) (string, error)

	// GetProfile returns the user's profile, or nil when the user has none.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// ConfigStore reads organization-scoped credentials and tool configuration.
// Lookups return nil, nil when no row matches.
type ConfigStore interface {
	GetActiveAPIKey(ctx context.Context, organizationID, provider string) (*models.APIKey, error)
	GetToolConfig(ctx context.Context, organizationID, identity string) (*models.ToolConfiguration, error)
	GetDefaultToolConfig(ctx context.Context, identity string) (*models.ToolConfiguration, error)
}

// DocumentSource lists an organization's posts published within [from, to].
type DocumentSource interface {
	FetchDocuments(ctx context.Context, organizationID string, from, to time.Time) ([]models.SourceDocument, error)
}

// ResumeStore persists generated resumes.
type ResumeStore interface {
	SaveResume(ctx context.Context, record *models.ResumeRecord) error
}

// Archiver copies generated resumes to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, record *models.ResumeRecord) error
}

// MetadataCache stores serialized URL metadata.
type MetadataCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
