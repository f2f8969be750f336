package models

import "time"

// GenerationResult is returned by every tool run, successful or not.
type GenerationResult struct {
	Success  bool             `json:"success"`
	Resume   string           `json:"resume,omitempty"`
	Error    string           `json:"error,omitempty"`
	Selected []FinalSelection `json:"selected,omitempty"`
	Logs     []LogEvent       `json:"logs"`

	Code int `json:"-"` // envelope code of a failed run
}

// ResumeRecord is a persisted generated resume.
type ResumeRecord struct {
	ID             int64     `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	UserID         string    `db:"user_id" json:"user_id,omitempty"`
	Provider       string    `db:"provider" json:"provider"`
	Model          string    `db:"model" json:"model"`
	Content        string    `db:"content" json:"content"`
	SelectedLinks  []string  `db:"selected_links" json:"selected_links"`
	RequestID      string    `db:"request_id" json:"request_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Schedule enables unattended resume generation for an organization.
type Schedule struct {
	OrganizationID string `db:"organization_id" json:"organization_id"`
	Provider       string `db:"provider" json:"provider"`
	Model          string `db:"model" json:"model"`
	LookbackHours  int    `db:"lookback_hours" json:"lookback_hours"`
}

// URLMetadata is the preview information extracted from a page.
type URLMetadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Author      string `json:"author,omitempty"`
	Type        string `json:"type,omitempty"`
	HTML        string `json:"html,omitempty"` // embed markup, Twitter/X only
}
