package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"kitai/db"
	"kitai/models"
	"kitai/utils"
)

// =====================
// API keys
// =====================

// GetActiveAPIKey returns the newest active key of the organization for
// provider, or nil when there is none.
func GetActiveAPIKey(ctx context.Context, organizationID, provider string) (*models.APIKey, error) {
	var (
		k   models.APIKey
		key sql.NullString
	)
	err := db.Builder().
		Select("id", "organization_id", "provider", "api_key", "is_active", "created_at").
		From("api_keys").
		Where(sq.Eq{"organization_id": organizationID}).
		Where(sq.Eq{"provider": provider}).
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&k.ID, &k.OrganizationID, &k.Provider, &key, &k.Active, &k.CreatedAt)
	if utils.IsSQLNoRowsError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k.Key = key.String
	return &k, nil
}

// =====================
// Tool configuration
// =====================

var toolConfigColumns = []string{"id", "organization_id", "identity", "prompts", "temperature", "top_p", "schema_json"}

// GetToolConfig returns the organization's own configuration for identity, or nil.
func GetToolConfig(ctx context.Context, organizationID, identity string) (*models.ToolConfiguration, error) {
	return scanToolConfig(db.Builder().
		Select(toolConfigColumns...).
		From("tool_configs").
		Where(sq.Eq{"organization_id": organizationID}).
		Where(sq.Eq{"identity": identity}).
		Limit(1).
		QueryRowContext(ctx))
}

// GetDefaultToolConfig returns the global configuration (no organization) for identity, or nil.
func GetDefaultToolConfig(ctx context.Context, identity string) (*models.ToolConfiguration, error) {
	return scanToolConfig(db.Builder().
		Select(toolConfigColumns...).
		From("tool_configs").
		Where(sq.Eq{"organization_id": nil}).
		Where(sq.Eq{"identity": identity}).
		Limit(1).
		QueryRowContext(ctx))
}

func scanToolConfig(row sq.RowScanner) (*models.ToolConfiguration, error) {
	var (
		c           models.ToolConfiguration
		orgID       sql.NullString
		prompts     sql.NullString
		temperature sql.NullFloat64
		topP        sql.NullFloat64
		schema      sql.NullString
	)
	err := row.Scan(&c.ID, &orgID, &c.Identity, &prompts, &temperature, &topP, &schema)
	if utils.IsSQLNoRowsError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.OrganizationID = orgID.String
	c.Temperature = temperature.Float64
	c.TopP = topP.Float64
	if prompts.Valid && prompts.String != "" {
		if err := json.Unmarshal([]byte(prompts.String), &c.Prompts); err != nil {
			return nil, fmt.Errorf("tool config %d: invalid prompts: %w", c.ID, err)
		}
	}
	if schema.Valid && schema.String != "" && schema.String != "null" {
		c.Schema = json.RawMessage(schema.String)
	}
	return &c, nil
}
