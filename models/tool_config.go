package models

import "encoding/json"

// Prompt is one ordered instruction of a tool configuration.
type Prompt struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ToolConfiguration holds the prompts and sampling settings of a tool.
// OrganizationID is empty for the global default record.
type ToolConfiguration struct {
	ID             int64           `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organization_id,omitempty"`
	Identity       string          `db:"identity" json:"identity"`
	Prompts        []Prompt        `db:"prompts" json:"prompts"`
	Temperature    float64         `db:"temperature" json:"temperature"`
	TopP           float64         `db:"top_p" json:"top_p"`
	Schema         json.RawMessage `db:"schema_json" json:"schema,omitempty"`
}

// IsDefault reports whether the configuration is the global fallback.
func (c *ToolConfiguration) IsDefault() bool {
	return c.OrganizationID == ""
}

// PrimaryPrompt returns the first prompt's content, or "" when there is none.
func (c *ToolConfiguration) PrimaryPrompt() string {
	if len(c.Prompts) == 0 {
		return ""
	}
	return c.Prompts[0].Content
}

// SelectionPrompt returns the second prompt's content, used to steer the
// intermediate selection passes. Empty when the tool defines only one prompt.
func (c *ToolConfiguration) SelectionPrompt() string {
	if len(c.Prompts) < 2 {
		return ""
	}
	return c.Prompts[1].Content
}
