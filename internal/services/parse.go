package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models asked for regex patterns routinely emit single backslashes ("\d")
// that are invalid JSON escapes. Double them unless already escaped.
var rePatternEscape = regexp.MustCompile(`([^\\])\\([dswDSW])`)

// ParseModelJSON decodes a model reply into a JSON object, tolerating prose or
// markdown fences around the payload: it takes the outermost {...} span and
// repairs common regex escape mistakes before giving up.
func ParseModelJSON(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in model output")
	}
	s = s[start : end+1]

	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out, nil
	}

	repaired := rePatternEscape.ReplaceAllString(s, `$1\\$2`)
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	return out, nil
}
