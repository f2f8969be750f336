package repository

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"kitai/db"
	"kitai/models"
	"kitai/utils"
)

// ErrOrganizationNotFound is returned when no organization has the given id.
var ErrOrganizationNotFound = errors.New("organization not found")

func GetOrganization(ctx context.Context, organizationID string) (*models.Organization, error) {
	var (
		org       models.Organization
		wordpress sql.NullString
		feed      sql.NullString
	)
	err := db.Builder().
		Select("id", "name", "wordpress_url", "feed_url").
		From("organizations").
		Where(sq.Eq{"id": organizationID}).
		QueryRowContext(ctx).
		Scan(&org.ID, &org.Name, &wordpress, &feed)
	if utils.IsSQLNoRowsError(err) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	org.WordPressURL = wordpress.String
	org.FeedURL = feed.String
	return &org, nil
}

// ListEnabledSchedules returns the organizations that want a resume on every scheduler tick.
func ListEnabledSchedules(ctx context.Context) ([]models.Schedule, error) {
	rows, err := db.Builder().
		Select("organization_id", "provider", "model", "lookback_hours").
		From("resume_schedules").
		Where(sq.Eq{"enabled": true}).
		OrderBy("organization_id").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.OrganizationID, &s.Provider, &s.Model, &s.LookbackHours); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
