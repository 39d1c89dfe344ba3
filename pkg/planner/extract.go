package planner

import (
	"encoding/json"
	"errors"
	"strings"
)

// errNoJSONBlock and errSchemaInvalid trigger a caller's deterministic
// fallback (§4.4) — they are never returned to the orchestrator directly.
var (
	errNoJSONBlock   = errors.New("planner: no json object found in response")
	errSchemaInvalid = errors.New("planner: response failed schema validation")
)

// extractJSON strips the first balanced `{...}` block out of raw LLM text
// and unmarshals it into out. LLMs routinely wrap JSON in prose, markdown
// code fences, or trailing commentary — this tolerates all three rather
// than demanding a clean response.
func extractJSON(raw string, out any) error {
	block, ok := firstJSONObject(raw)
	if !ok {
		return errNoJSONBlock
	}
	if err := json.Unmarshal([]byte(block), out); err != nil {
		return errSchemaInvalid
	}
	return nil
}

// firstJSONObject scans for the first top-level `{...}` block, tracking
// brace depth and skipping over braces inside quoted strings.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
