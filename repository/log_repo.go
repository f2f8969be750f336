package repository

import (
	"context"

	"kitai/db"
	"kitai/models"
)

// SaveLogEvent appends one event to the logs table.
func SaveLogEvent(ctx context.Context, ev models.LogEvent) error {
	_, err := db.Builder().
		Insert("logs").
		Columns(
			"id", "request_id", "event_type", "level", "message", "created_at",
			"user_id", "organization_id", "tool", "provider", "model",
			"batch_index", "item_count", "duration_ms", "error_message", "metadata",
		).
		Values(
			ev.ID, ev.RequestID, ev.EventType, ev.Level, ev.Message, ev.CreatedAt,
			nullString(ev.UserID), nullString(ev.OrganizationID), nullString(ev.Tool),
			nullString(ev.Provider), nullString(ev.Model),
			ev.BatchIndex, ev.ItemCount, ev.DurationMs,
			nullString(ev.ErrorMessage), nullJSON(ev.Metadata),
		).
		ExecContext(ctx)
	return err
}

// ListLogEvents returns the events of one request in insertion order.
func ListLogEvents(ctx context.Context, requestID string) ([]models.LogEvent, error) {
	rows, err := db.Builder().
		Select("id", "request_id", "event_type", "level", "message", "created_at",
			"COALESCE(user_id, '')", "COALESCE(organization_id, '')", "COALESCE(tool, '')",
			"COALESCE(provider, '')", "COALESCE(model, '')",
			"batch_index", "item_count", "duration_ms", "COALESCE(error_message, '')", "metadata").
		From("logs").
		Where("request_id = ?", requestID).
		OrderBy("created_at ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.LogEvent, 0)
	for rows.Next() {
		var (
			ev       models.LogEvent
			metadata []byte
		)
		if err := rows.Scan(&ev.ID, &ev.RequestID, &ev.EventType, &ev.Level, &ev.Message, &ev.CreatedAt,
			&ev.UserID, &ev.OrganizationID, &ev.Tool, &ev.Provider, &ev.Model,
			&ev.BatchIndex, &ev.ItemCount, &ev.DurationMs, &ev.ErrorMessage, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			ev.Metadata = metadata
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
