package jsonutil

import (
	"encoding/json"
	"regexp"
	"strings"
)

// shotPromptPattern matches a "shot_prompt": "..." pair in loose model output.
// The value may span lines and contain quotes; it ends at the first quote
// followed by a comma, a closing brace or the end of the text.
var shotPromptPattern = regexp.MustCompile(`(?s)"shot_prompt"\s*:\s*"(.+?)"\s*(?:,|}|$)`)

// ExtractShotPrompt pulls the shot_prompt field out of a model response.
// It tries, in order: a strict JSON parse (after stripping a code fence),
// a regex match on the field, and finally the trimmed text itself.
// It never fails.
func ExtractShotPrompt(raw string) string {
	text := stripFence(strings.TrimSpace(raw))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		if v, ok := obj["shot_prompt"]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s
			}
		}
	}

	if m := shotPromptPattern.FindStringSubmatch(text); len(m) > 1 {
		snippet := m[1]
		var s string
		if err := json.Unmarshal([]byte(`"`+snippet+`"`), &s); err == nil {
			return s
		}
		return snippet
	}

	return text
}

// stripFence removes a leading ```lang ... ``` wrapper.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) < 3 {
		return text
	}
	body := parts[1]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	}
	return strings.TrimSpace(body)
}
