package models

import "time"

// SourceDocument is a post imported from the content source. Link is the natural key.
type SourceDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ExcerptHTML string    `json:"excerpt_html"`
	ContentHTML string    `json:"content_html"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// SelectionCandidate is one item picked by the selector.
type SelectionCandidate struct {
	Link   string `json:"link"`
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// SelectionResult is the schema-constrained selector output.
type SelectionResult struct {
	Selected []SelectionCandidate `json:"selected"`
}

// FinalSelection is a finalist handed to the synthesizer.
type FinalSelection struct {
	Link    string    `json:"link"`
	Title   string    `json:"title"`
	Content string    `json:"content"` // HTML stripped
	Date    time.Time `json:"date"`
}
