package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseJSONOutput extracts the JSON object from a model reply and checks that it parses.
func parseJSONOutput(text string) (json.RawMessage, error) {
	candidate := extractJSON(text)
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutput, preview(text, 200))
	}
	return json.RawMessage(candidate), nil
}

// extractJSON returns the outermost {...} span of text, falling back to a
// ```json fenced block, then to the trimmed text itself.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}

	const fence = "```json"
	if i := strings.Index(text, fence); i >= 0 {
		rest := text[i+len(fence):]
		if j := strings.Index(rest, "```"); j > 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	return text
}
