package utils

import "strings"

// ExtractJSONObject returns the JSON object embedded in a model response.
// Markdown code fences are stripped; otherwise the text between the first
// '{' and the last '}' is returned. ok is false when no object is present.
func ExtractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if start := strings.Index(text, "```"); start >= 0 {
		rest := text[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		text = strings.TrimSpace(rest)
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
