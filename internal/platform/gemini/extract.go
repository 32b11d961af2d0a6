package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didiklab/taksir-api/internal/analysis"
)

// extractJSON pulls the JSON object out of the model's response text.
// The model is asked for application/json, but responses occasionally
// arrive wrapped in markdown fences or surrounded by explanatory prose.
// Extraction is attempted in order of strictness:
//
//  1. the whole text parses as JSON
//  2. the content of a ```json fenced block parses as JSON
//  3. the widest substring between the first '{' and the last '}' parses
//
// Returns analysis.ErrInvalidResponse if no candidate parses.
func extractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response text", analysis.ErrInvalidResponse)
	}

	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	if fenced, ok := stripFences(trimmed); ok && json.Valid([]byte(fenced)) {
		return json.RawMessage(fenced), nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object found in response text", analysis.ErrInvalidResponse)
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag. Returns the inner content and whether a fence was found.
func stripFences(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return text, false
	}

	inner := strings.TrimPrefix(text, "```")
	// Drop the language tag on the opening fence line, if any.
	if idx := strings.IndexByte(inner, '\n'); idx >= 0 {
		inner = inner[idx+1:]
	}

	closing := strings.LastIndex(inner, "```")
	if closing < 0 {
		return text, false
	}

	return strings.TrimSpace(inner[:closing]), true
}
