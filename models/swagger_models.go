package models

import "time"

// APIResponse is the common response envelope.
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ResumeRequest is the body of POST /api/resume/generate.
type ResumeRequest struct {
	Provider string           `json:"provider" example:"openai"`
	Model    string           `json:"model" example:"gpt-4o"`
	From     time.Time        `json:"from" example:"2025-01-01T00:00:00Z"`
	To       time.Time        `json:"to" example:"2025-01-02T00:00:00Z"`
	Posts    []SourceDocument `json:"posts,omitempty"`
}

// ToolRequest is the body of POST /api/tools/{identity}/generate.
type ToolRequest struct {
	Provider string `json:"provider" example:"anthropic"`
	Model    string `json:"model" example:"claude-sonnet-4-5"`
	Input    string `json:"input" example:"Texto a resumir"`
}

// ResumeResponse documents the resume endpoint payload.
type ResumeResponse struct {
	Code    int              `json:"code" example:"0"`
	Message string           `json:"message" example:"success"`
	Data    GenerationResult `json:"data"`
}
