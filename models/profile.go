package models

import "time"

// Profile links an authenticated user to its organization.
type Profile struct {
	UserID         string `db:"user_id" json:"user_id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	Role           string `db:"role" json:"role"`
}

// Organization is the tenant boundary; content source URLs live here.
type Organization struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	WordPressURL string `db:"wordpress_url" json:"wordpress_url,omitempty"`
	FeedURL      string `db:"feed_url" json:"feed_url,omitempty"`
}

// APIKey is an organization's credential for one provider.
type APIKey struct {
	ID             int64     `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Provider       string    `db:"provider" json:"provider"`
	Key            string    `db:"key" json:"-"`
	Active         bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
