package models

import (
	"encoding/json"
	"time"
)

// Event types written to the logs table.
const (
	EventAuth       = "auth"
	EventConfig     = "config"
	EventContent    = "content"
	EventSelection  = "selection"
	EventGeneration = "generation"
	EventRequest    = "request"
)

// Log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEvent is one append-only row of the logs table.
type LogEvent struct {
	ID             string          `db:"id" json:"id"`
	RequestID      string          `db:"request_id" json:"request_id"`
	EventType      string          `db:"event_type" json:"event_type"`
	Level          string          `db:"level" json:"level"`
	Message        string          `db:"message" json:"message"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UserID         string          `db:"user_id" json:"user_id,omitempty"`
	OrganizationID string          `db:"organization_id" json:"organization_id,omitempty"`
	Tool           string          `db:"tool" json:"tool,omitempty"`
	Provider       string          `db:"provider" json:"provider,omitempty"`
	Model          string          `db:"model" json:"model,omitempty"`
	BatchIndex     *int            `db:"batch_index" json:"batch_index,omitempty"`
	ItemCount      *int            `db:"item_count" json:"item_count,omitempty"`
	DurationMs     *int64          `db:"duration_ms" json:"duration_ms,omitempty"`
	ErrorMessage   string          `db:"error_message" json:"error_message,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
}
