package repository

import (
	"context"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kitai/db"
	"kitai/models"
)

// SaveResume inserts a generated resume and fills record.ID and CreatedAt.
func SaveResume(ctx context.Context, record *models.ResumeRecord) error {
	links, err := json.Marshal(record.SelectedLinks)
	if err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	insert := db.Builder().
		Insert("resumes").
		Columns("organization_id", "user_id", "provider", "model", "content", "selected_links", "request_id", "created_at").
		Values(record.OrganizationID, nullString(record.UserID), record.Provider, record.Model,
			record.Content, string(links), record.RequestID, record.CreatedAt)

	if db.IsPostgres() {
		return insert.Suffix("RETURNING id").QueryRowContext(ctx).Scan(&record.ID)
	}
	res, err := insert.ExecContext(ctx)
	if err != nil {
		return err
	}
	record.ID, err = res.LastInsertId()
	return err
}

// MarkArchived stamps a resume once its copy reached object storage.
func MarkArchived(ctx context.Context, id int64) error {
	_, err := db.Builder().
		Update("resumes").
		Set("archived_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"archived_at": nil}).
		ExecContext(ctx)
	return err
}

// ListResumes returns the latest resumes of an organization, newest first.
func ListResumes(ctx context.Context, organizationID string, limit int) ([]models.ResumeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Builder().
		Select("id", "organization_id", "COALESCE(user_id, '')", "provider", "model", "content", "selected_links", "request_id", "created_at").
		From("resumes").
		Where(sq.Eq{"organization_id": organizationID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.ResumeRecord, 0)
	for rows.Next() {
		var (
			r     models.ResumeRecord
			links []byte
		)
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.Provider, &r.Model,
			&r.Content, &links, &r.RequestID, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(links) > 0 {
			if err := json.Unmarshal(links, &r.SelectedLinks); err != nil {
				return nil, err
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
