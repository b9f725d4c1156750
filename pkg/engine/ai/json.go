package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls a JSON document out of model output. Models are asked for
// JSON but routinely wrap it in a markdown fence or surround it with prose.
// The caller always receives something parseable: if no JSON can be found the
// raw text comes back as an opaque payload tagged type "text".
func ExtractJSON(text string) map[string]any {
	trimmed := strings.TrimSpace(text)

	if m := fencedJSON.FindStringSubmatch(trimmed); len(m) == 2 {
		if out, ok := tryUnmarshal(m[1]); ok {
			return out
		}
	}
	if out, ok := tryUnmarshal(trimmed); ok {
		return out
	}
	// Last resort: first brace to last brace, for JSON embedded in prose.
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		if out, ok := tryUnmarshal(trimmed[start : end+1]); ok {
			return out
		}
	}
	return map[string]any{"content": text, "type": "text"}
}

func tryUnmarshal(s string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, out != nil
}
