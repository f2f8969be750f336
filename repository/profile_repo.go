package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kitai/db"
	"kitai/models"
	"kitai/utils"
)

// =====================
// Sessions
// =====================

// GetSessionUser returns the user of a non-expired session, or "" when the hash
// matches nothing.
func GetSessionUser(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := db.Builder().
		Select("user_id").
		From("auth_sessions").
		Where(sq.Eq{"token_hash": tokenHash}).
		Where(sq.Gt{"expires_at": time.Now().UTC()}).
		Limit(1).
		QueryRowContext(ctx).
		Scan(&userID)
	if utils.IsSQLNoRowsError(err) {
		return "", nil
	}
	return userID, err
}

// =====================
// Profiles
// =====================

// GetProfile returns the profile of userID, or nil when the user has none.
func GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var (
		p     models.Profile
		orgID sql.NullString
		role  sql.NullString
	)
	err := db.Builder().
		Select("user_id", "organization_id", "role").
		From("profiles").
		Where(sq.Eq{"user_id": userID}).
		QueryRowContext(ctx).
		Scan(&p.UserID, &orgID, &role)
	if utils.IsSQLNoRowsError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.OrganizationID = orgID.String
	p.Role = role.String
	return &p, nil
}
